package galaxy

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStarsInRadiusMatchesBruteForce(t *testing.T) {
	g := generateSmall(t, func(c *Config) { c.StarCount = 800 })

	centers := []Vec2{{0, 0}, {1200, -800}, {-3000, 2500}, g.Stars[17].Position}
	for _, center := range centers {
		for _, radius := range []float64{0, 250, 1500, 6000} {
			got := g.StarsInRadius(center, radius)

			var want []string
			for _, s := range g.Stars {
				if s.Position.Distance(center) <= radius {
					want = append(want, s.ID)
				}
			}
			ids := make([]string, len(got))
			for i, s := range got {
				ids[i] = s.ID
			}
			sorted := append([]string(nil), ids...)
			sort.Strings(sorted)
			sort.Strings(want)
			assert.Equal(t, want, nilIfEmpty(sorted), "center %v radius %v", center, radius)

			for i := 1; i < len(got); i++ {
				prev := got[i-1].Position.Distance(center)
				cur := got[i].Position.Distance(center)
				require.LessOrEqual(t, prev, cur)
			}
		}
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestStarsInRadiusNegative(t *testing.T) {
	g := generateSmall(t, nil)
	assert.Empty(t, g.StarsInRadius(Vec2{}, -1))
}

func TestSystemsInRadiusOnlySystems(t *testing.T) {
	g := generateSmall(t, func(c *Config) { c.StarCount = 400 })

	systems := g.SystemsInRadius(Vec2{}, g.Config.Size)
	assert.Len(t, systems, len(g.Systems))
	for _, sys := range systems {
		assert.NotNil(t, g.System(sys.ID))
	}
}

func TestLookups(t *testing.T) {
	g := generateSmall(t, func(c *Config) { c.SystemChance = 1 })

	star := g.Star("star_0003")
	require.NotNil(t, star)
	assert.Equal(t, "star_0003", star.ID)
	assert.Nil(t, g.Star("star_9999"))

	sys := g.System("star_0003")
	require.NotNil(t, sys)
	assert.Equal(t, *star, sys.Star)

	for _, s := range g.Systems {
		for _, p := range s.Planets {
			assert.True(t, g.HasPlanet(p.ID))
		}
	}
	assert.False(t, g.HasPlanet("star_0003_p99"))
}

func TestFindHomeSystem(t *testing.T) {
	g := generateSmall(t, func(c *Config) { c.StarCount = 500 })

	home := g.FindHomeSystem(g.Config.Size)
	require.NotNil(t, home)
	assert.NotEmpty(t, home.Planets)

	// No qualifying system may be closer to the centre than the pick.
	hasG := home.Star.Type == TypeG
	for _, sys := range g.Systems {
		if len(sys.Planets) == 0 {
			continue
		}
		if hasG && sys.Star.Type != TypeG {
			continue
		}
		assert.GreaterOrEqual(t, sys.Star.Position.Length(), home.Star.Position.Length(), sys.ID)
	}

	assert.Nil(t, g.FindHomeSystem(-1))
}

func TestCountsAndBreakdowns(t *testing.T) {
	g := generateSmall(t, func(c *Config) { c.StarCount = 300 })

	c := g.Counts()
	assert.Equal(t, 300, c.Stars)
	assert.Equal(t, len(g.Systems), c.Systems)

	planets, moons := 0, 0
	for _, sys := range g.Systems {
		planets += len(sys.Planets)
		for _, p := range sys.Planets {
			moons += len(p.Moons)
		}
	}
	assert.Equal(t, planets, c.Planets)
	assert.Equal(t, moons, c.Moons)

	total := 0
	for typ, n := range g.SpectralCounts() {
		assert.True(t, typ.Valid())
		total += n
	}
	assert.Equal(t, c.Stars, total)

	total = 0
	for _, n := range g.PlanetTypeCounts() {
		total += n
	}
	assert.Equal(t, c.Planets, total)

	assert.True(t, strings.HasPrefix(g.String(), "Galaxy(seed=42"))
}

func TestNames(t *testing.T) {
	assert.Equal(t, "Velara III", planetName("Velara", 2))
	assert.Equal(t, "Velara III b", moonName(planetName("Velara", 2), 1))
	assert.Equal(t, "Velara 13", planetName("Velara", 12))
	assert.Equal(t, "star_0042", StarID(42))
}
