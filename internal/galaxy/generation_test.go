package galaxy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/starfield/internal/astro"
)

func generateSmall(t *testing.T, mutate func(*Config)) *Galaxy {
	t.Helper()
	cfg := SmallTestConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	g, err := Generate(context.Background(), cfg)
	require.NoError(t, err)
	return g
}

func TestGenerateDeterministic(t *testing.T) {
	a := generateSmall(t, func(c *Config) { c.StarCount = 300 })
	b := generateSmall(t, func(c *Config) { c.StarCount = 300 })

	assert.Equal(t, a.Stars, b.Stars)
	assert.Equal(t, a.Systems, b.Systems)
}

func TestGenerateDifferentSeedsDiffer(t *testing.T) {
	a := generateSmall(t, nil)
	b := generateSmall(t, func(c *Config) { c.Seed = 43 })
	assert.NotEqual(t, a.Stars[0].Position, b.Stars[0].Position)
}

func TestGenerateIndependentOfBatchSize(t *testing.T) {
	cfg := SmallTestConfig()
	cfg.StarCount = 250

	base, err := NewGenerator(cfg).Generate(context.Background(), nil)
	require.NoError(t, err)

	for _, batch := range []int{1, 7, 64, 10000} {
		gen := NewGenerator(cfg)
		gen.BatchSize = batch
		calls := 0
		got, err := gen.Generate(context.Background(), func(Progress) error {
			calls++
			return nil
		})
		require.NoError(t, err, "batch %d", batch)
		assert.Equal(t, base.Stars, got.Stars, "batch %d", batch)
		assert.Equal(t, base.Systems, got.Systems, "batch %d", batch)
		assert.Positive(t, calls)
	}
}

func TestGenerateSmallGalaxy(t *testing.T) {
	g := generateSmall(t, nil)

	require.Len(t, g.Stars, 50)
	for i, s := range g.Stars {
		assert.Equal(t, fmt.Sprintf("star_%04d", i), s.ID)
		assert.NotEmpty(t, s.Name)
	}

	withPlanets := 0
	for _, sys := range g.Systems {
		if len(sys.Planets) > 0 {
			withPlanets++
		}
	}
	assert.Positive(t, withPlanets)
}

func TestStarNamesUnique(t *testing.T) {
	g := generateSmall(t, func(c *Config) { c.StarCount = 2000 })
	seen := make(map[string]bool, len(g.Stars))
	for _, s := range g.Stars {
		require.False(t, seen[s.Name], "duplicate name %q", s.Name)
		seen[s.Name] = true
	}
}

func TestStarProperties(t *testing.T) {
	g := generateSmall(t, func(c *Config) { c.StarCount = 1000 })

	for _, s := range g.Stars {
		require.True(t, s.Type.Valid(), s.ID)
		assert.False(t, s.Type.IsRemnant(), s.ID)
		assert.Equal(t, ClassifyMass(s.Mass), s.Type, s.ID)
		assert.InEpsilon(t, Luminosity(s.Mass, s.Type), s.Luminosity, 1e-12, s.ID)

		base := BaseTemperature(s.Type)
		assert.GreaterOrEqual(t, s.Temperature, base*0.9, s.ID)
		assert.Less(t, s.Temperature, base*1.1, s.ID)

		assert.GreaterOrEqual(t, s.Metallicity, 0.0)
		assert.LessOrEqual(t, s.Metallicity, 1.0)
		assert.Greater(t, s.Brightness, 0.0)
		assert.LessOrEqual(t, s.Brightness, 1.0)
		assert.GreaterOrEqual(t, s.Age, 0.0)
		assert.LessOrEqual(t, s.Age, astro.UniverseAgeMyr)

		assert.LessOrEqual(t, s.Position.Length(), g.Config.Size+1e-6, s.ID)
	}
}

func TestClassifyMassThresholds(t *testing.T) {
	tests := []struct {
		mass float64
		want SpectralType
	}{
		{50, TypeO},
		{30.01, TypeO},
		{30, TypeB},
		{10.5, TypeB},
		{10, TypeA},
		{2.6, TypeA},
		{2.5, TypeF},
		{1.5, TypeF},
		{1.4, TypeG},
		{1.0, TypeG},
		{0.8, TypeK},
		{0.6, TypeK},
		{0.5, TypeM},
		{0.1, TypeM},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyMass(tt.mass), "mass %v", tt.mass)
	}
}

func TestLuminosityExponents(t *testing.T) {
	assert.InDelta(t, 1.0, Luminosity(1, TypeG), 1e-12)
	assert.InDelta(t, math.Pow(2, 3.5), Luminosity(2, TypeF), 1e-9)
	assert.InDelta(t, math.Pow(0.5, 2.3), Luminosity(0.5, TypeM), 1e-12)
	assert.InDelta(t, math.Pow(15, 4), Luminosity(15, TypeB), 1e-6)
}

func TestPlanetOrbitsAscending(t *testing.T) {
	g := generateSmall(t, func(c *Config) { c.StarCount = 500 })

	for _, sys := range g.Systems {
		assert.Equal(t, sys.Star.ID, sys.ID)
		assert.LessOrEqual(t, len(sys.Planets), maxPlanets)
		for i, p := range sys.Planets {
			assert.Equal(t, sys.ID, p.StarID)
			if i == 0 {
				assert.GreaterOrEqual(t, p.OrbitDistance, 0.1, p.ID)
				assert.Less(t, p.OrbitDistance, 0.5, p.ID)
				continue
			}
			ratio := p.OrbitDistance / sys.Planets[i-1].OrbitDistance
			assert.GreaterOrEqual(t, ratio, 1.4-1e-9, p.ID)
			assert.Less(t, ratio, 2.0+1e-9, p.ID)
		}
	}
}

func TestPlanetPeriodsFollowKepler(t *testing.T) {
	g := generateSmall(t, func(c *Config) { c.StarCount = 300 })

	for _, sys := range g.Systems {
		for _, p := range sys.Planets {
			want := math.Sqrt(math.Pow(p.OrbitDistance, 3)/sys.Star.Mass) * astro.DaysPerYear
			assert.InEpsilon(t, want, p.OrbitPeriod, 1e-9, p.ID)
		}
	}
}

func TestPlanetZoneRules(t *testing.T) {
	g := generateSmall(t, func(c *Config) { c.StarCount = 1500 })

	for _, sys := range g.Systems {
		hz := sys.HabitableZone
		require.Less(t, hz.Inner, hz.Outer)

		for _, p := range sys.Planets {
			switch p.Type {
			case PlanetVolcanic:
				assert.Less(t, p.OrbitDistance, 0.5*hz.Inner, p.ID)
			case PlanetGasGiant, PlanetIceGiant:
				assert.Greater(t, p.OrbitDistance, 2*hz.Outer, p.ID)
				assert.True(t, p.Atmosphere.Present, p.ID)
			case PlanetOcean:
				assert.True(t, hz.Contains(p.OrbitDistance), p.ID)
				assert.True(t, p.HasWater, p.ID)
			case PlanetToxic:
				assert.Equal(t, AtmosSulfuric, p.Atmosphere.Kind, p.ID)
			}

			switch p.Type {
			case PlanetGasGiant:
				assert.GreaterOrEqual(t, p.Mass, 50.0)
				assert.Less(t, p.Mass, 500.0)
			case PlanetIceGiant:
				assert.GreaterOrEqual(t, p.Mass, 10.0)
				assert.Less(t, p.Mass, 50.0)
			default:
				assert.GreaterOrEqual(t, p.Mass, 0.1)
				assert.Less(t, p.Mass, 3.0)
			}

			assert.InEpsilon(t, math.Pow(p.Mass, 0.27), p.Radius, 1e-12, p.ID)

			if p.HasLife {
				assert.True(t, p.HasWater, p.ID)
				assert.True(t, hz.Contains(p.OrbitDistance), p.ID)
				assert.Equal(t, AtmosNitrogenOxygen, p.Atmosphere.Kind, p.ID)
			}
			if !p.Atmosphere.Present {
				assert.Empty(t, p.Atmosphere.Kind, p.ID)
			}
		}
	}
}

func TestMoonsBelongToPlanet(t *testing.T) {
	g := generateSmall(t, func(c *Config) { c.StarCount = 500 })

	for _, sys := range g.Systems {
		for _, p := range sys.Planets {
			if p.Type == PlanetGasGiant {
				assert.GreaterOrEqual(t, len(p.Moons), 1, p.ID)
			}
			assert.LessOrEqual(t, len(p.Moons), 12, p.ID)
			for i, m := range p.Moons {
				assert.Equal(t, p.ID, m.PlanetID)
				assert.Equal(t, fmt.Sprintf("%s_m%d", p.ID, i), m.ID)
				assert.Positive(t, m.OrbitPeriod)
				if i > 0 {
					assert.Greater(t, m.OrbitDistance, p.Moons[i-1].OrbitDistance)
				}
			}
		}
	}
}

func TestBeltsLieBeyondPlanets(t *testing.T) {
	g := generateSmall(t, func(c *Config) {
		c.StarCount = 300
		c.BeltChance = 1
	})

	for _, sys := range g.Systems {
		require.Len(t, sys.Belts, 1, sys.ID)
		belt := sys.Belts[0]
		assert.Less(t, belt.InnerRadius, belt.OuterRadius)
		if n := len(sys.Planets); n > 0 {
			assert.Greater(t, belt.InnerRadius, sys.Planets[n-1].OrbitDistance)
		}
	}
}

func TestSystemChanceExtremes(t *testing.T) {
	none := generateSmall(t, func(c *Config) { c.SystemChance = 0 })
	assert.Empty(t, none.Systems)

	all := generateSmall(t, func(c *Config) { c.SystemChance = 1 })
	assert.Len(t, all.Systems, len(all.Stars))
}

func TestGenerateRejectsInvalidConfig(t *testing.T) {
	tests := map[string]func(*Config){
		"no stars":       func(c *Config) { c.StarCount = 0 },
		"no arms":        func(c *Config) { c.SpiralArms = 0 },
		"zero size":      func(c *Config) { c.Size = 0 },
		"core too large": func(c *Config) { c.CoreSize = c.Size * 2 },
		"chance above 1": func(c *Config) { c.SystemChance = 1.5 },
		"zero density":   func(c *Config) { c.StarDensity = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := SmallTestConfig()
			mutate(&cfg)
			g, err := Generate(context.Background(), cfg)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestZeroSeedIsResolved(t *testing.T) {
	cfg := SmallTestConfig()
	cfg.Seed = 0

	gen := NewGenerator(cfg)
	assert.NotZero(t, gen.Config().Seed)

	g, err := gen.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, gen.Config().Seed, g.Config.Seed)
}

func TestGenerateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Generate(ctx, SmallTestConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProgressHookReportsPhasesAndCanAbort(t *testing.T) {
	cfg := SmallTestConfig()
	cfg.StarCount = 120
	gen := NewGenerator(cfg)
	gen.BatchSize = 50

	var seen []Progress
	_, err := gen.Generate(context.Background(), func(p Progress) error {
		seen = append(seen, p)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []Progress{
		{PhaseStars, 50, 120}, {PhaseStars, 100, 120}, {PhaseStars, 120, 120},
		{PhaseSystems, 50, 120}, {PhaseSystems, 100, 120}, {PhaseSystems, 120, 120},
	}, seen)

	stop := errors.New("stop")
	_, err = gen.Generate(context.Background(), func(p Progress) error {
		if p.Phase == PhaseSystems {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
}
