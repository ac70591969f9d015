package galaxy

import (
	"fmt"
	"math"

	"github.com/talgya/starfield/internal/astro"
	"github.com/talgya/starfield/internal/rng"
)

// Planet-generation decision table. Each property is an independent
// weighted decision conditioned on type, mass and zone:
//
//	property     | rule
//	-------------|--------------------------------------------------------------
//	count        | uniform [0, 8)
//	orbit        | first [0.1, 0.5) AU, then previous × [1.4, 2.0)
//	type         | zone: <0.5×HZ inner volcanic; >2×HZ outer {gas, ice, frozen};
//	             | in HZ {terrestrial, ocean, desert}; else {terrestrial, desert, frozen}
//	mass         | gas giant [50,500), ice giant [10,50), rocky [0.1,3.0) M⊕
//	radius       | mass^0.27
//	temperature  | 278.5 × (L/d²)^0.25 × [0.8, 1.2)
//	period       | √(d³/M★) × 365.25 days
//	atmosphere   | giants always; volcanic 70% SO₂; frozen 30% N₂/CH₄; ocean always;
//	             | rocky <0.3 M⊕ 20% thin CO₂, else 80% zone-weighted
//	toxic        | terrestrial/desert with a sulfuric atmosphere become toxic
//	water        | ocean always; terrestrial in HZ 70%, liquid range 30%;
//	             | frozen 50%; desert 10%
//	life         | water ∧ in HZ ∧ N₂/O₂ atmosphere, then 30%
//	rings        | gas giant 60%, ice giant 40%, others 5%
//	moons        | gas giant 1–12, ice giant 0–5, rocky ≥0.5 M⊕ 0–2, else 15% one
//	belt         | BeltChance; just beyond the last orbit

// maxPlanets is the exclusive upper bound of the planet count draw.
const maxPlanets = 8

// Atmosphere kinds.
const (
	AtmosHydrogenHelium  = "hydrogen-helium"
	AtmosHydrogenMethane = "hydrogen-methane"
	AtmosSulfurDioxide   = "sulfur-dioxide"
	AtmosNitrogenMethane = "nitrogen-methane"
	AtmosNitrogenOxygen  = "nitrogen-oxygen"
	AtmosWaterVapor      = "water-vapor"
	AtmosCarbonDioxide   = "carbon-dioxide"
	AtmosSulfuric        = "sulfuric"
)

type orbitalZone uint8

const (
	zoneScorched  orbitalZone = iota // inside half the HZ inner bound
	zoneInner                        // between scorched and the HZ
	zoneHabitable                    // within the HZ
	zoneOuter                        // beyond the HZ, inside twice its outer bound
	zoneDeep                         // beyond twice the HZ outer bound
)

func classifyZone(au float64, hz HabitableZone) orbitalZone {
	switch {
	case au < 0.5*hz.Inner:
		return zoneScorched
	case au > 2*hz.Outer:
		return zoneDeep
	case hz.Contains(au):
		return zoneHabitable
	case au < hz.Inner:
		return zoneInner
	default:
		return zoneOuter
	}
}

var (
	deepTypes      = []PlanetType{PlanetGasGiant, PlanetIceGiant, PlanetFrozen}
	habitableTypes = []PlanetType{PlanetTerrestrial, PlanetOcean, PlanetDesert}
	temperateTypes = []PlanetType{PlanetTerrestrial, PlanetDesert, PlanetFrozen}
)

func pickPlanetType(r *rng.LCG, zone orbitalZone) PlanetType {
	switch zone {
	case zoneScorched:
		return PlanetVolcanic
	case zoneDeep:
		return rng.Choice(r, deepTypes)
	case zoneHabitable:
		return rng.Choice(r, habitableTypes)
	default:
		return rng.Choice(r, temperateTypes)
	}
}

func planetMass(r *rng.LCG, t PlanetType) float64 {
	switch t {
	case PlanetGasGiant:
		return r.Range(50, 500)
	case PlanetIceGiant:
		return r.Range(10, 50)
	default:
		return r.Range(0.1, 3.0)
	}
}

// generateSystem builds the planets and belt around a star.
func generateSystem(r *rng.LCG, cfg Config, star Star) StarSystem {
	inner, outer := astro.HabitableZone(star.Luminosity)
	hz := HabitableZone{Inner: inner, Outer: outer}

	count := r.Intn(maxPlanets)
	planets := make([]Planet, 0, count)
	orbit := 0.0
	for i := 0; i < count; i++ {
		if i == 0 {
			orbit = r.Range(0.1, 0.5)
		} else {
			orbit *= r.Range(1.4, 2.0)
		}
		planets = append(planets, generatePlanet(r, star, hz, i, orbit))
	}

	sys := StarSystem{
		ID:            star.ID,
		Star:          star,
		Planets:       planets,
		Belts:         []AsteroidBelt{},
		HabitableZone: hz,
		Age:           star.Age,
		Metallicity:   star.Metallicity,
	}

	if r.Chance(cfg.BeltChance) {
		sys.Belts = append(sys.Belts, generateBelt(r, star.ID, hz, planets))
	}
	return sys
}

func generatePlanet(r *rng.LCG, star Star, hz HabitableZone, index int, orbit float64) Planet {
	zone := classifyZone(orbit, hz)
	typ := pickPlanetType(r, zone)
	mass := planetMass(r, typ)
	temp := astro.EquilibriumTemperature(star.Luminosity, orbit) * r.Range(0.8, 1.2)

	atmos := planetAtmosphere(r, typ, mass, zone)
	if atmos.Kind == AtmosSulfuric && (typ == PlanetTerrestrial || typ == PlanetDesert) {
		typ = PlanetToxic
	}

	p := Planet{
		ID:            fmt.Sprintf("%s_p%d", star.ID, index),
		Name:          planetName(star.Name, index),
		StarID:        star.ID,
		OrbitDistance: orbit,
		OrbitPeriod:   astro.OrbitalPeriodDays(orbit, star.Mass),
		Radius:        astro.PlanetRadius(mass),
		Mass:          mass,
		Type:          typ,
		Temperature:   temp,
		Atmosphere:    atmos,
	}
	p.Surface = planetSurface(r, typ)
	p.HasWater = planetWater(r, typ, zone, temp)
	p.HasLife = p.HasWater && zone == zoneHabitable && atmos.Kind == AtmosNitrogenOxygen && r.Chance(0.3)
	p.HasRings = r.Chance(ringChance(typ))
	p.Moons = generateMoons(r, p)
	return p
}

func planetAtmosphere(r *rng.LCG, t PlanetType, mass float64, zone orbitalZone) Atmosphere {
	present := func(kind string) Atmosphere { return Atmosphere{Present: true, Kind: kind} }

	switch t {
	case PlanetGasGiant:
		return present(AtmosHydrogenHelium)
	case PlanetIceGiant:
		return present(AtmosHydrogenMethane)
	case PlanetVolcanic:
		if r.Chance(0.7) {
			return present(AtmosSulfurDioxide)
		}
	case PlanetFrozen:
		if r.Chance(0.3) {
			return present(AtmosNitrogenMethane)
		}
	case PlanetOcean:
		if r.Chance(0.6) {
			return present(AtmosNitrogenOxygen)
		}
		return present(AtmosWaterVapor)
	default:
		if mass < 0.3 {
			if r.Chance(0.2) {
				return present(AtmosCarbonDioxide)
			}
			return Atmosphere{}
		}
		if !r.Chance(0.8) {
			return Atmosphere{}
		}
		roll := r.Next()
		if zone == zoneHabitable {
			switch {
			case roll < 0.5:
				return present(AtmosNitrogenOxygen)
			case roll < 0.75:
				return present(AtmosCarbonDioxide)
			default:
				return present(AtmosSulfuric)
			}
		}
		if roll < 0.6 {
			return present(AtmosCarbonDioxide)
		}
		return present(AtmosSulfuric)
	}
	return Atmosphere{}
}

var surfaceTable = map[PlanetType]struct {
	kinds  []string
	colors []string
}{
	PlanetTerrestrial: {[]string{"rocky", "continental"}, []string{"#6b8e4e", "#8b7d6b", "#5a7d9a"}},
	PlanetOcean:       {[]string{"oceanic"}, []string{"#1e5aa8", "#2a7fbf"}},
	PlanetDesert:      {[]string{"sandy", "rocky"}, []string{"#c2a060", "#d9b779", "#b5651d"}},
	PlanetVolcanic:    {[]string{"molten"}, []string{"#8b2500", "#a0522d", "#3b1f1b"}},
	PlanetFrozen:      {[]string{"icy"}, []string{"#dfefff", "#b0c4de"}},
	PlanetToxic:       {[]string{"corroded"}, []string{"#9acd32", "#b8b800"}},
	PlanetGasGiant:    {[]string{"gaseous"}, []string{"#d2b48c", "#c89f6b", "#e3c6a0"}},
	PlanetIceGiant:    {[]string{"gaseous"}, []string{"#7fc7d9", "#4f86c6"}},
}

func planetSurface(r *rng.LCG, t PlanetType) Surface {
	entry := surfaceTable[t]
	return Surface{
		Kind:  rng.Choice(r, entry.kinds),
		Color: rng.Choice(r, entry.colors),
	}
}

func planetWater(r *rng.LCG, t PlanetType, zone orbitalZone, temp float64) bool {
	switch t {
	case PlanetOcean:
		return true
	case PlanetTerrestrial:
		if zone == zoneHabitable {
			return r.Chance(0.7)
		}
		if temp >= 273 && temp <= 373 {
			return r.Chance(0.3)
		}
	case PlanetFrozen:
		return r.Chance(0.5)
	case PlanetDesert:
		return r.Chance(0.1)
	}
	return false
}

func ringChance(t PlanetType) float64 {
	switch t {
	case PlanetGasGiant:
		return 0.6
	case PlanetIceGiant:
		return 0.4
	default:
		return 0.05
	}
}

func moonCount(r *rng.LCG, p Planet) int {
	switch {
	case p.Type == PlanetGasGiant:
		return 1 + r.Intn(12)
	case p.Type == PlanetIceGiant:
		return r.Intn(6)
	case p.Mass >= 0.5:
		return r.Intn(3)
	case r.Chance(0.15):
		return 1
	default:
		return 0
	}
}

func generateMoons(r *rng.LCG, p Planet) []Moon {
	count := moonCount(r, p)
	moons := make([]Moon, 0, count)
	orbit := 0.0
	for i := 0; i < count; i++ {
		if i == 0 {
			orbit = r.Range(3, 8)
		} else {
			orbit *= r.Range(1.3, 1.8)
		}

		var radius float64
		if p.Type.IsGiant() {
			radius = r.Range(0.05, 0.45)
		} else {
			radius = r.Range(0.02, 0.3)
		}
		mass := math.Pow(radius, 3) * r.Range(0.5, 1.0)

		var typ MoonType
		switch {
		case radius < 0.06 && r.Chance(0.5):
			typ = MoonCapturedAsteroid
		case p.Type.IsGiant() && i >= 4 && r.Chance(0.4):
			typ = MoonCapturedAsteroid
		case p.Temperature < 170:
			typ = MoonIcy
		default:
			typ = MoonRocky
		}

		id := fmt.Sprintf("%s_m%d", p.ID, i)
		moons = append(moons, Moon{
			ID:            id,
			PlanetID:      p.ID,
			Name:          moonName(p.Name, i),
			OrbitDistance: orbit,
			OrbitPeriod:   astro.MoonPeriodHours(orbit, p.Radius, p.Mass),
			Radius:        radius,
			Mass:          mass,
			Type:          typ,
			TidallyLocked: orbit < 30 || r.Chance(0.2),
		})
	}
	return moons
}

func generateBelt(r *rng.LCG, systemID string, hz HabitableZone, planets []Planet) AsteroidBelt {
	var inner float64
	if len(planets) == 0 {
		inner = r.Range(2, 4)
	} else {
		inner = planets[len(planets)-1].OrbitDistance * r.Range(1.2, 1.5)
	}
	outer := inner * r.Range(1.2, 1.6)

	composition := "icy"
	if inner <= 2*hz.Outer {
		composition = rng.Choice(r, []string{"rocky", "metallic"})
	}

	return AsteroidBelt{
		ID:          systemID + "_belt",
		InnerRadius: inner,
		OuterRadius: outer,
		Density:     r.Range(0.1, 1.0),
		Composition: composition,
	}
}
