// Package galaxy generates the deterministic star field and the planetary
// systems around it. Generation is a pure function of (seed, config): the same
// inputs always produce the same stars, systems, planets and moons.
package galaxy

import (
	"math"

	"github.com/talgya/starfield/internal/astro"
)

// Vec2 is a position in light-years relative to the galactic centre.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func (v Vec2) Distance(o Vec2) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// Length returns the distance from the galactic centre.
func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// SpectralType is the closed stellar classification.
type SpectralType string

const (
	TypeO           SpectralType = "O"
	TypeB           SpectralType = "B"
	TypeA           SpectralType = "A"
	TypeF           SpectralType = "F"
	TypeG           SpectralType = "G"
	TypeK           SpectralType = "K"
	TypeM           SpectralType = "M"
	TypeWhiteDwarf  SpectralType = "white-dwarf"
	TypeNeutronStar SpectralType = "neutron-star"
	TypeBlackHole   SpectralType = "black-hole"
)

// SpectralTypes lists every classification, hottest main-sequence class first.
var SpectralTypes = []SpectralType{
	TypeO, TypeB, TypeA, TypeF, TypeG, TypeK, TypeM,
	TypeWhiteDwarf, TypeNeutronStar, TypeBlackHole,
}

// Star is a generated star. Luminosity, temperature and radius are derived
// from mass and type, never set independently.
type Star struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Position    Vec2         `json:"position"`
	Type        SpectralType `json:"type"`
	Mass        float64      `json:"mass"`        // M☉
	Luminosity  float64      `json:"luminosity"`  // L☉
	Temperature float64      `json:"temperature"` // K
	Age         float64      `json:"age"`         // Myr
	Metallicity float64      `json:"metallicity"` // 0–1
	Radius      float64      `json:"radius"`      // R☉
	Color       astro.RGB    `json:"color"`
	Brightness  float64      `json:"brightness"` // 0–1 render scalar
}

// HabitableZone is an orbital band in AU.
type HabitableZone struct {
	Inner float64 `json:"inner"`
	Outer float64 `json:"outer"`
}

// Contains reports whether an orbit lies within the band.
func (hz HabitableZone) Contains(au float64) bool {
	return au >= hz.Inner && au <= hz.Outer
}

// StarSystem is a star together with its planets. Its ID equals the star's.
type StarSystem struct {
	ID            string         `json:"id"`
	Star          Star           `json:"star"`
	Planets       []Planet       `json:"planets"` // orbit ascending
	Belts         []AsteroidBelt `json:"belts"`
	HabitableZone HabitableZone  `json:"habitable_zone"`
	Age           float64        `json:"age"`
	Metallicity   float64        `json:"metallicity"`
}

// Planet returns the planet with the given id, or nil.
func (s *StarSystem) Planet(id string) *Planet {
	for i := range s.Planets {
		if s.Planets[i].ID == id {
			return &s.Planets[i]
		}
	}
	return nil
}

// PlanetType classifies planets by orbital zone and composition.
type PlanetType string

const (
	PlanetTerrestrial PlanetType = "terrestrial"
	PlanetGasGiant    PlanetType = "gas-giant"
	PlanetIceGiant    PlanetType = "ice-giant"
	PlanetDesert      PlanetType = "desert"
	PlanetOcean       PlanetType = "ocean"
	PlanetVolcanic    PlanetType = "volcanic"
	PlanetFrozen      PlanetType = "frozen"
	PlanetToxic       PlanetType = "toxic"
)

// IsGiant reports whether the type is a gas or ice giant.
func (t PlanetType) IsGiant() bool {
	return t == PlanetGasGiant || t == PlanetIceGiant
}

// Atmosphere describes a planet's envelope. Kind is empty when absent.
type Atmosphere struct {
	Present bool   `json:"present"`
	Kind    string `json:"kind,omitempty"`
}

// Surface is the render-facing description of a planet's surface.
type Surface struct {
	Kind  string `json:"kind"`
	Color string `json:"color"` // #rrggbb
}

// Planet is a generated planet.
type Planet struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	StarID        string     `json:"star_id"`
	OrbitDistance float64    `json:"orbit_distance"` // AU
	OrbitPeriod   float64    `json:"orbit_period"`   // days
	Radius        float64    `json:"radius"`         // Earth radii
	Mass          float64    `json:"mass"`           // Earth masses
	Type          PlanetType `json:"type"`
	Temperature   float64    `json:"temperature"` // K
	Atmosphere    Atmosphere `json:"atmosphere"`
	HasRings      bool       `json:"has_rings"`
	Surface       Surface    `json:"surface"`
	HasWater      bool       `json:"has_water"`
	HasLife       bool       `json:"has_life"`
	Moons         []Moon     `json:"moons"`
}

// MoonType classifies moons.
type MoonType string

const (
	MoonRocky            MoonType = "rocky"
	MoonIcy              MoonType = "icy"
	MoonCapturedAsteroid MoonType = "captured-asteroid"
)

// Moon is a generated moon.
type Moon struct {
	ID            string   `json:"id"`
	PlanetID      string   `json:"planet_id"`
	Name          string   `json:"name"`
	OrbitDistance float64  `json:"orbit_distance"` // planet radii
	OrbitPeriod   float64  `json:"orbit_period"`   // hours
	Radius        float64  `json:"radius"`         // Earth radii
	Mass          float64  `json:"mass"`           // Earth masses
	Type          MoonType `json:"type"`
	TidallyLocked bool     `json:"tidally_locked"`
}

// AsteroidBelt is a debris ring beyond the outermost planet.
type AsteroidBelt struct {
	ID          string  `json:"id"`
	InnerRadius float64 `json:"inner_radius"` // AU
	OuterRadius float64 `json:"outer_radius"` // AU
	Density     float64 `json:"density"`      // 0–1
	Composition string  `json:"composition"`
}
