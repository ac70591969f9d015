package galaxy

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/starfield/internal/astro"
	"github.com/talgya/starfield/internal/rng"
)

// placeStar samples a position on the spiral. Radius follows a power law
// bounded by the galaxy size; stars inside the core lose arm structure.
func placeStar(r *rng.LCG, cfg Config) Vec2 {
	radius := cfg.Size * math.Pow(r.Next(), 0.7)
	arm := r.Intn(cfg.SpiralArms)
	armOffset := float64(arm) * astro.TwoPi / float64(cfg.SpiralArms)

	normalized := radius / cfg.Size
	angle := armOffset + normalized*cfg.ArmTightness*2*astro.TwoPi

	// Bounded noise widens the arms; denser galaxies get tighter arms.
	armSpread := 0.35 / cfg.StarDensity
	angle += r.Range(-1, 1) * armSpread
	radius += r.Range(-1, 1) * cfg.Size * 0.04 / cfg.StarDensity
	radius = astro.Clamp(radius, 0, cfg.Size)

	if radius < cfg.CoreSize {
		angle = r.Range(0, astro.TwoPi)
	}

	return Vec2{X: math.Cos(angle) * radius, Y: math.Sin(angle) * radius}
}

// sampleMass draws from a three-segment approximation of the initial mass
// function: 80% low-mass, 15% intermediate, 5% massive.
func sampleMass(r *rng.LCG) float64 {
	u := r.Next()
	v := r.Next()
	switch {
	case u < 0.80:
		return 0.1 + math.Pow(v, 2)*0.7
	case u < 0.95:
		return 0.8 + math.Pow(v, 1.5)*2.2
	default:
		return 3 + math.Pow(v, 3)*47
	}
}

// extinctionField is a seeded dust map dimming stars behind dense regions.
// It is deterministic per seed and position and draws nothing from the LCG.
type extinctionField struct {
	noise opensimplex.Noise
	scale float64
}

func newExtinctionField(seed int64, size float64) *extinctionField {
	return &extinctionField{
		noise: opensimplex.NewNormalized(seed),
		scale: 8 / size,
	}
}

// at returns a dimming factor in [0.6, 1].
func (f *extinctionField) at(p Vec2) float64 {
	n := octaveNoise(f.noise, p.X*f.scale, p.Y*f.scale, 3, 0.5)
	return 0.6 + 0.4*astro.Clamp(n, 0, 1)
}

// octaveNoise layers multiple frequencies of the same noise source.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	frequency := 1.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// deriveStar fills in the physical properties of a placed star.
func deriveStar(r *rng.LCG, cfg Config, index int, pos Vec2, dust *extinctionField) Star {
	coreInfluence := math.Max(0, 1-pos.Length()/cfg.Size)
	metallicity := astro.Clamp(0.2+0.6*coreInfluence+r.Range(-0.15, 0.15), 0, 1)

	mass := sampleMass(r)
	typ := ClassifyMass(mass)
	lum := Luminosity(mass, typ)
	temp := BaseTemperature(typ) * r.Range(0.9, 1.1)
	radius := astro.StellarRadius(lum, temp)

	lifetime := astro.MainSequenceLifetime(mass)
	age := math.Min(lifetime, astro.UniverseAgeMyr) * r.Next()

	brightness := astro.Clamp(0.35+0.12*math.Log10(lum), 0.05, 1) * dust.at(pos)

	return Star{
		ID:          StarID(index),
		Position:    pos,
		Type:        typ,
		Mass:        mass,
		Luminosity:  lum,
		Temperature: temp,
		Age:         age,
		Metallicity: metallicity,
		Radius:      radius,
		Color:       astro.BlackbodyColor(temp),
		Brightness:  brightness,
	}
}
