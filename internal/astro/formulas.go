package astro

import (
	"math"

	"golang.org/x/exp/constraints"
)

// HabitableZone returns the inner and outer habitable-zone bounds in AU for a
// star of the given luminosity (L☉).
func HabitableZone(luminosity float64) (inner, outer float64) {
	return math.Sqrt(luminosity / HabitableInnerFlux), math.Sqrt(luminosity / HabitableOuterFlux)
}

// OrbitalPeriodDays applies Kepler's third law: distance in AU, star mass in
// M☉, result in days.
func OrbitalPeriodDays(distanceAU, starMass float64) float64 {
	if starMass <= 0 {
		return 0
	}
	return math.Sqrt(math.Pow(distanceAU, 3)/starMass) * DaysPerYear
}

// MoonPeriodHours returns the orbital period of a moon. Orbit is measured in
// planet radii; planet radius and mass are in Earth units.
func MoonPeriodHours(orbitPlanetRadii, planetRadius, planetMass float64) float64 {
	if planetMass <= 0 {
		return 0
	}
	a := orbitPlanetRadii * planetRadius
	return LowOrbitHours * math.Sqrt(a*a*a/planetMass)
}

// EquilibriumTemperature is the inverse-square stellar flux approximation,
// without jitter.
func EquilibriumTemperature(luminosity, distanceAU float64) float64 {
	if distanceAU <= 0 {
		return 0
	}
	return EarthEquilibrium * math.Pow(luminosity/(distanceAU*distanceAU), 0.25)
}

// StellarRadius inverts Stefan–Boltzmann: R = √L × (T☉/T)², in R☉.
func StellarRadius(luminosity, temperature float64) float64 {
	if temperature <= 0 {
		return 0
	}
	ratio := SolarTemperature / temperature
	return math.Sqrt(luminosity) * ratio * ratio
}

// MainSequenceLifetime approximates lifetime in million years as
// 10,000 / M^2.5.
func MainSequenceLifetime(mass float64) float64 {
	if mass <= 0 {
		return 0
	}
	return 10000 / math.Pow(mass, 2.5)
}

// PlanetRadius is the single simplified mass-radius relation (Earth units).
func PlanetRadius(mass float64) float64 {
	return math.Pow(mass, 0.27)
}

// Round rounds v to the given number of decimal places.
func Round[T constraints.Float](v T, places int) T {
	scale := math.Pow(10, float64(places))
	return T(math.Round(float64(v)*scale) / scale)
}

// Clamp bounds v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
