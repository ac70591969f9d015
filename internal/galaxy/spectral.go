package galaxy

import "math"

// ClassifyMass maps stellar mass (M☉) to a main-sequence spectral type using
// fixed thresholds.
func ClassifyMass(mass float64) SpectralType {
	switch {
	case mass > 30:
		return TypeO
	case mass > 10:
		return TypeB
	case mass > 2.5:
		return TypeA
	case mass > 1.4:
		return TypeF
	case mass > 0.8:
		return TypeG
	case mass > 0.5:
		return TypeK
	default:
		return TypeM
	}
}

// luminosityExponent is α in L = M^α.
func luminosityExponent(t SpectralType) float64 {
	switch t {
	case TypeO, TypeB, TypeG:
		return 4.0
	case TypeA, TypeF:
		return 3.5
	default:
		return 2.3
	}
}

// Luminosity returns L☉ for a main-sequence star.
func Luminosity(mass float64, t SpectralType) float64 {
	return math.Pow(mass, luminosityExponent(t))
}

// BaseTemperature is the nominal effective temperature of a class, before
// jitter.
func BaseTemperature(t SpectralType) float64 {
	switch t {
	case TypeO:
		return 40000
	case TypeB:
		return 20000
	case TypeA:
		return 8500
	case TypeF:
		return 6500
	case TypeG:
		return 5778
	case TypeK:
		return 4500
	case TypeM:
		return 3200
	case TypeWhiteDwarf:
		return 12000
	case TypeNeutronStar:
		return 600000
	default:
		return 0
	}
}

// IsRemnant reports whether the type is a stellar remnant.
func (t SpectralType) IsRemnant() bool {
	return t == TypeWhiteDwarf || t == TypeNeutronStar || t == TypeBlackHole
}

// Valid reports whether t is one of the ten classifications.
func (t SpectralType) Valid() bool {
	for _, s := range SpectralTypes {
		if s == t {
			return true
		}
	}
	return false
}
