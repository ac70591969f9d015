package galaxy

import (
	"fmt"
	"math"
	"sort"
)

// gridCell is the side of a spatial index cell in light-years.
const gridCell = 1000.0

type cellKey struct {
	X, Y int
}

func cellOf(p Vec2) cellKey {
	return cellKey{X: int(math.Floor(p.X / gridCell)), Y: int(math.Floor(p.Y / gridCell))}
}

// Galaxy holds the complete generated dataset with lookup indexes.
// Generated astrophysical data is read-only after construction.
type Galaxy struct {
	Config  Config       `json:"config"`
	Stars   []Star       `json:"stars"`
	Systems []StarSystem `json:"systems"`

	starIndex   map[string]int
	systemIndex map[string]int
	grid        map[cellKey][]int // cell → star indexes
}

// New assembles a galaxy and builds its indexes.
func New(cfg Config, stars []Star, systems []StarSystem) *Galaxy {
	g := &Galaxy{
		Config:      cfg,
		Stars:       stars,
		Systems:     systems,
		starIndex:   make(map[string]int, len(stars)),
		systemIndex: make(map[string]int, len(systems)),
		grid:        make(map[cellKey][]int),
	}
	for i, s := range stars {
		g.starIndex[s.ID] = i
		c := cellOf(s.Position)
		g.grid[c] = append(g.grid[c], i)
	}
	for i, s := range systems {
		g.systemIndex[s.ID] = i
	}
	return g
}

// Star returns the star with the given id, or nil.
func (g *Galaxy) Star(id string) *Star {
	i, ok := g.starIndex[id]
	if !ok {
		return nil
	}
	return &g.Stars[i]
}

// System returns the system with the given id, or nil.
func (g *Galaxy) System(id string) *StarSystem {
	i, ok := g.systemIndex[id]
	if !ok {
		return nil
	}
	return &g.Systems[i]
}

// HasPlanet reports whether a planet id exists anywhere in the galaxy.
func (g *Galaxy) HasPlanet(id string) bool {
	for i := range g.Systems {
		if g.Systems[i].Planet(id) != nil {
			return true
		}
	}
	return false
}

// StarsInRadius returns stars within radius of center, nearest first.
// Ties are broken by id so the order is stable.
func (g *Galaxy) StarsInRadius(center Vec2, radius float64) []Star {
	if radius < 0 {
		return nil
	}
	lo := cellOf(Vec2{X: center.X - radius, Y: center.Y - radius})
	hi := cellOf(Vec2{X: center.X + radius, Y: center.Y + radius})

	type hit struct {
		idx  int
		dist float64
	}
	var hits []hit
	for cx := lo.X; cx <= hi.X; cx++ {
		for cy := lo.Y; cy <= hi.Y; cy++ {
			for _, idx := range g.grid[cellKey{cx, cy}] {
				d := g.Stars[idx].Position.Distance(center)
				if d <= radius {
					hits = append(hits, hit{idx, d})
				}
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return g.Stars[hits[i].idx].ID < g.Stars[hits[j].idx].ID
	})

	result := make([]Star, len(hits))
	for i, h := range hits {
		result[i] = g.Stars[h.idx]
	}
	return result
}

// SystemsInRadius returns systems whose star lies within radius of center,
// nearest first.
func (g *Galaxy) SystemsInRadius(center Vec2, radius float64) []*StarSystem {
	var result []*StarSystem
	for _, s := range g.StarsInRadius(center, radius) {
		if sys := g.System(s.ID); sys != nil {
			result = append(result, sys)
		}
	}
	return result
}

// FindHomeSystem picks a starting system near the galactic centre: the
// closest G-type system with planets, else the closest system with planets.
// Returns nil when nothing within searchRadius qualifies.
func (g *Galaxy) FindHomeSystem(searchRadius float64) *StarSystem {
	var fallback *StarSystem
	for _, sys := range g.SystemsInRadius(Vec2{}, searchRadius) {
		if len(sys.Planets) == 0 {
			continue
		}
		if sys.Star.Type == TypeG {
			return sys
		}
		if fallback == nil {
			fallback = sys
		}
	}
	return fallback
}

// Counts summarizes the dataset.
type Counts struct {
	Stars   int `json:"stars"`
	Systems int `json:"systems"`
	Planets int `json:"planets"`
	Moons   int `json:"moons"`
	Belts   int `json:"belts"`
}

// Counts tallies stars, systems, planets, moons and belts.
func (g *Galaxy) Counts() Counts {
	c := Counts{Stars: len(g.Stars), Systems: len(g.Systems)}
	for i := range g.Systems {
		sys := &g.Systems[i]
		c.Planets += len(sys.Planets)
		c.Belts += len(sys.Belts)
		for _, p := range sys.Planets {
			c.Moons += len(p.Moons)
		}
	}
	return c
}

// SpectralCounts returns the number of stars per spectral type.
func (g *Galaxy) SpectralCounts() map[SpectralType]int {
	counts := make(map[SpectralType]int)
	for _, s := range g.Stars {
		counts[s.Type]++
	}
	return counts
}

// PlanetTypeCounts returns the number of planets per type.
func (g *Galaxy) PlanetTypeCounts() map[PlanetType]int {
	counts := make(map[PlanetType]int)
	for i := range g.Systems {
		for _, p := range g.Systems[i].Planets {
			counts[p.Type]++
		}
	}
	return counts
}

// String returns a summary of the galaxy.
func (g *Galaxy) String() string {
	c := g.Counts()
	return fmt.Sprintf("Galaxy(seed=%d, stars=%d, systems=%d, planets=%d)",
		g.Config.Seed, c.Stars, c.Systems, c.Planets)
}
