package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/talgya/starfield/internal/astro"
	"github.com/talgya/starfield/internal/exploration"
	"github.com/talgya/starfield/internal/galaxy"
)

// SnapshotVersion is written into every save. Only the major component is
// checked on load.
const SnapshotVersion = "1.1.0"

// GeneratorVersion identifies the generation algorithm. A snapshot only
// stores compressed astrophysical data, so on load the galaxy is rebuilt
// from its seed; a different generator version means saved ids may not
// line up and are pruned.
const GeneratorVersion = 1

var (
	// ErrInvalidSnapshot marks a snapshot missing required fields.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	// ErrIncompatibleVersion marks a snapshot from another major version.
	ErrIncompatibleVersion = errors.New("incompatible snapshot version")
)

// CompactStar is the lossy stored form of a star.
type CompactStar struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	X           float64   `json:"x"` // integer ly
	Y           float64   `json:"y"`
	Type        string    `json:"type"`
	Mass        float64   `json:"mass"`
	Luminosity  float64   `json:"lum"`
	Temperature float64   `json:"temp"` // whole K
	Radius      float64   `json:"radius"`
	Age         float64   `json:"age"`
	Metallicity float64   `json:"metal"`
	Color       astro.RGB `json:"color"`
	Brightness  float64   `json:"bright"`
}

// CompactPlanet is the lossy stored form of a planet. Moons collapse to a
// count.
type CompactPlanet struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Orbit       float64 `json:"orbit"`
	Period      float64 `json:"period"`
	Radius      float64 `json:"radius"`
	Mass        float64 `json:"mass"`
	Temperature float64 `json:"temp"`
	Atmosphere  string  `json:"atmos,omitempty"`
	Surface     string  `json:"surface"`
	Color       string  `json:"color"`
	Rings       bool    `json:"rings,omitempty"`
	Water       bool    `json:"water,omitempty"`
	Life        bool    `json:"life,omitempty"`
	Moons       int     `json:"moons"`
}

// CompactBelt is the stored form of an asteroid belt.
type CompactBelt struct {
	Inner       float64 `json:"inner"`
	Outer       float64 `json:"outer"`
	Density     float64 `json:"density"`
	Composition string  `json:"composition"`
}

// CompactSystem is the stored form of a star system. The star position is
// duplicated so chunk queries need nothing else.
type CompactSystem struct {
	ID       string          `json:"id"`
	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	StarType string          `json:"starType"`
	HZ       [2]float64      `json:"hz"`
	Planets  []CompactPlanet `json:"planets"`
	Belt     *CompactBelt    `json:"belt,omitempty"`
}

// Position returns the system's star position.
func (c CompactSystem) Position() galaxy.Vec2 {
	return galaxy.Vec2{X: c.X, Y: c.Y}
}

// PlayerData holds the scalar parts of exploration state.
type PlayerData struct {
	CurrentSystemID  string      `json:"currentSystemId"`
	HomeSystemID     string      `json:"homeSystemId"`
	Position         galaxy.Vec2 `json:"position"`
	SystemsVisited   int         `json:"systemsVisited"`
	DistanceTraveled float64     `json:"distanceTraveled"`
}

// Snapshot is one complete save.
type Snapshot struct {
	Version           string                   `json:"version"`
	SaveID            string                   `json:"saveId"`
	Timestamp         time.Time                `json:"timestamp"`
	GeneratorVersion  int                      `json:"generatorVersion"`
	Config            *galaxy.Config           `json:"config"`
	PlayerData        PlayerData               `json:"playerData"`
	Stars             []CompactStar            `json:"stars"`
	Systems           []CompactSystem          `json:"systems"`
	ExploredSystems   []string                 `json:"exploredSystems"`
	DiscoveredPlanets []string                 `json:"discoveredPlanets"`
	VisitedLocations  []exploration.Visit      `json:"visitedLocations"`
	Reputation        map[string]float64       `json:"reputation"`
	TradeRoutes       []exploration.TradeRoute `json:"tradeRoutes"`
}

// CompressStar applies the storage rounding policy to a star.
func CompressStar(s galaxy.Star) CompactStar {
	return CompactStar{
		ID:          s.ID,
		Name:        s.Name,
		X:           astro.Round(s.Position.X, 0),
		Y:           astro.Round(s.Position.Y, 0),
		Type:        string(s.Type),
		Mass:        astro.Round(s.Mass, 2),
		Luminosity:  astro.Round(s.Luminosity, 2),
		Temperature: astro.Round(s.Temperature, 0),
		Radius:      astro.Round(s.Radius, 2),
		Age:         astro.Round(s.Age, 2),
		Metallicity: astro.Round(s.Metallicity, 2),
		Color:       s.Color,
		Brightness:  astro.Round(s.Brightness, 2),
	}
}

// CompressSystem applies the storage rounding policy to a system.
func CompressSystem(sys galaxy.StarSystem) CompactSystem {
	c := CompactSystem{
		ID:       sys.ID,
		X:        astro.Round(sys.Star.Position.X, 0),
		Y:        astro.Round(sys.Star.Position.Y, 0),
		StarType: string(sys.Star.Type),
		HZ:       [2]float64{astro.Round(sys.HabitableZone.Inner, 2), astro.Round(sys.HabitableZone.Outer, 2)},
		Planets:  make([]CompactPlanet, 0, len(sys.Planets)),
	}
	for _, p := range sys.Planets {
		c.Planets = append(c.Planets, CompactPlanet{
			ID:          p.ID,
			Name:        p.Name,
			Type:        string(p.Type),
			Orbit:       astro.Round(p.OrbitDistance, 2),
			Period:      astro.Round(p.OrbitPeriod, 2),
			Radius:      astro.Round(p.Radius, 2),
			Mass:        astro.Round(p.Mass, 2),
			Temperature: astro.Round(p.Temperature, 0),
			Atmosphere:  p.Atmosphere.Kind,
			Surface:     p.Surface.Kind,
			Color:       p.Surface.Color,
			Rings:       p.HasRings,
			Water:       p.HasWater,
			Life:        p.HasLife,
			Moons:       len(p.Moons),
		})
	}
	if len(sys.Belts) > 0 {
		b := sys.Belts[0]
		c.Belt = &CompactBelt{
			Inner:       astro.Round(b.InnerRadius, 2),
			Outer:       astro.Round(b.OuterRadius, 2),
			Density:     astro.Round(b.Density, 2),
			Composition: b.Composition,
		}
	}
	return c
}

// NewSnapshot builds a save from a galaxy and exploration state.
func NewSnapshot(g *galaxy.Galaxy, st *exploration.State, now time.Time) *Snapshot {
	cfg := g.Config
	snap := &Snapshot{
		Version:          SnapshotVersion,
		SaveID:           uuid.NewString(),
		Timestamp:        now.UTC(),
		GeneratorVersion: GeneratorVersion,
		Config:           &cfg,
		PlayerData: PlayerData{
			CurrentSystemID:  st.CurrentSystemID,
			HomeSystemID:     st.HomeSystemID,
			Position:         st.Position,
			SystemsVisited:   st.SystemsVisited,
			DistanceTraveled: st.DistanceTraveled,
		},
		Stars:             make([]CompactStar, 0, len(g.Stars)),
		Systems:           make([]CompactSystem, 0, len(g.Systems)),
		ExploredSystems:   st.ExploredIDs(),
		DiscoveredPlanets: st.DiscoveredIDs(),
		VisitedLocations:  append([]exploration.Visit{}, st.Visits...),
		Reputation:        make(map[string]float64, len(st.Reputation)),
		TradeRoutes:       append([]exploration.TradeRoute{}, st.TradeRoutes...),
	}
	for _, s := range g.Stars {
		snap.Stars = append(snap.Stars, CompressStar(s))
	}
	for _, sys := range g.Systems {
		snap.Systems = append(snap.Systems, CompressSystem(sys))
	}
	for k, v := range st.Reputation {
		snap.Reputation[k] = v
	}
	return snap
}

// Validate rejects snapshots that cannot be restored.
func (s *Snapshot) Validate() error {
	if s.Version == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidSnapshot)
	}
	major, err := majorVersion(s.Version)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	current, _ := majorVersion(SnapshotVersion)
	if major != current {
		return fmt.Errorf("%w: %s (want %d.x.x)", ErrIncompatibleVersion, s.Version, current)
	}
	switch {
	case s.Config == nil:
		return fmt.Errorf("%w: missing config", ErrInvalidSnapshot)
	case s.Stars == nil:
		return fmt.Errorf("%w: missing stars", ErrInvalidSnapshot)
	case s.Systems == nil:
		return fmt.Errorf("%w: missing systems", ErrInvalidSnapshot)
	case s.Config.Seed == 0:
		return fmt.Errorf("%w: unresolved seed", ErrInvalidSnapshot)
	}
	// The galaxy is regenerated from this config on load.
	if err := s.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return nil
}

func majorVersion(v string) (int, error) {
	parts := strings.Split(v, ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed version %q", v)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed version %q", v)
	}
	return major, nil
}

// Exploration rebuilds the exploration state recorded in the snapshot.
func (s *Snapshot) Exploration() *exploration.State {
	st := exploration.NewState()
	for _, id := range s.ExploredSystems {
		st.MarkExplored(id)
	}
	for _, id := range s.DiscoveredPlanets {
		st.DiscoverPlanet(id)
	}
	st.Visits = append(st.Visits, s.VisitedLocations...)
	st.CurrentSystemID = s.PlayerData.CurrentSystemID
	st.HomeSystemID = s.PlayerData.HomeSystemID
	st.Position = s.PlayerData.Position
	st.SystemsVisited = s.PlayerData.SystemsVisited
	st.DistanceTraveled = s.PlayerData.DistanceTraveled
	for k, v := range s.Reputation {
		st.Reputation[k] = v
	}
	st.TradeRoutes = append(st.TradeRoutes, s.TradeRoutes...)
	return st
}

// zstd encoders and decoders are safe for concurrent EncodeAll/DecodeAll.
var (
	zenc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zdec, _ = zstd.NewReader(nil)
)

// Encode serializes a snapshot as zstd-compressed JSON.
func Encode(s *Snapshot) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return zenc.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

// Decode reverses Encode and validates the result.
func Decode(b []byte) (*Snapshot, error) {
	raw, err := zdec.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %v", ErrInvalidSnapshot, err)
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", ErrInvalidSnapshot, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
