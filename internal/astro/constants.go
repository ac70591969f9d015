// Package astro holds the physical constants and simplified formulas shared
// by the generator, the persistence layer and tests. The formulas are stylized
// approximations tuned for plausibility, not precision.
package astro

import "math"

// Solar and planetary reference values.
const (
	// SolarTemperature is the Sun's effective temperature in Kelvin.
	SolarTemperature = 5778.0

	// EarthEquilibrium is the blackbody equilibrium temperature (K) at 1 AU
	// from a 1 L☉ star.
	EarthEquilibrium = 278.5

	// DaysPerYear scales Kepler periods from years to days.
	DaysPerYear = 365.25

	// LowOrbitHours is the period of a circular orbit skimming an Earth-mass,
	// Earth-radius body.
	LowOrbitHours = 1.408

	// UniverseAgeMyr caps stellar ages.
	UniverseAgeMyr = 13000.0
)

// Habitable zone flux limits (inner and outer, in S☉).
const (
	HabitableInnerFlux = 1.1
	HabitableOuterFlux = 0.53
)

// TwoPi is used throughout the spiral-arm placement.
const TwoPi = 2 * math.Pi
