// Package manager ties generation, persistence and exploration together and
// exposes the query surface the rest of the game uses.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/talgya/starfield/internal/exploration"
	"github.com/talgya/starfield/internal/galaxy"
	"github.com/talgya/starfield/internal/persistence"
)

var (
	// ErrNoStartingSystem means no system near the centre can host the
	// player. A galaxy without a valid start is not playable.
	ErrNoStartingSystem = errors.New("no suitable starting system")
	// ErrUnknownSystem is returned for ids the galaxy does not contain.
	ErrUnknownSystem = errors.New("unknown system")
	// ErrUnknownPlanet is returned for planet ids the galaxy does not contain.
	ErrUnknownPlanet = errors.New("unknown planet")
	// ErrNotInitialized is returned before Initialize succeeds.
	ErrNotInitialized = errors.New("galaxy not initialized")
	// ErrInvalidRoute rejects trade routes between unexplored or identical
	// systems.
	ErrInvalidRoute = errors.New("invalid trade route")
)

// Options tune the manager.
type Options struct {
	HomeSearchRadius float64 // ly from the galactic centre
	ChunkRadius      float64 // ly around the player
	ChunkMaxSystems  int
	Now              func() time.Time
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return Options{
		HomeSearchRadius: 10000,
		ChunkRadius:      2000,
		ChunkMaxSystems:  200,
		Now:              time.Now,
	}
}

// Stats summarizes the galaxy and the player's progress.
type Stats struct {
	TotalStars          int     `json:"totalStars"`
	TotalSystems        int     `json:"totalSystems"`
	TotalPlanets        int     `json:"totalPlanets"`
	ExploredSystems     int     `json:"exploredSystems"`
	DiscoveredPlanets   int     `json:"discoveredPlanets"`
	SystemsVisited      int     `json:"systemsVisited"`
	DistanceTraveled    float64 `json:"distanceTraveled"`
	ExplorationProgress float64 `json:"explorationProgress"` // 0–1
	CurrentSystemID     string  `json:"currentSystemId"`
	HomeSystemID        string  `json:"homeSystemId"`
	Seed                int64   `json:"seed"`
}

// Manager owns the generated galaxy and the exploration side table. It is
// safe for concurrent use.
type Manager struct {
	store *persistence.Store
	opts  Options
	log   *slog.Logger

	mu       sync.RWMutex
	galaxy   *galaxy.Galaxy
	state    *exploration.State
	paused   bool
	lastSave time.Time
	saveID   string
}

// New creates a manager over a store. Zero option fields take defaults.
func New(store *persistence.Store, opts Options) *Manager {
	def := DefaultOptions()
	if opts.HomeSearchRadius <= 0 {
		opts.HomeSearchRadius = def.HomeSearchRadius
	}
	if opts.ChunkRadius <= 0 {
		opts.ChunkRadius = def.ChunkRadius
	}
	if opts.ChunkMaxSystems <= 0 {
		opts.ChunkMaxSystems = def.ChunkMaxSystems
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	return &Manager{
		store: store,
		opts:  opts,
		log:   slog.With("component", "manager"),
	}
}

// Initialize restores the saved game or starts a new one. A missing or
// unusable save is not an error: a fresh galaxy is generated from cfg.
func (m *Manager) Initialize(ctx context.Context, cfg galaxy.Config) error {
	snap, err := m.store.Load(ctx)
	if err == nil {
		if err := m.restore(ctx, snap); err != nil {
			return err
		}
	} else {
		m.log.Info("no usable save, generating new galaxy", "reason", err)
		if err := m.newGame(ctx, cfg); err != nil {
			return err
		}
		if _, err := m.Save(ctx); err != nil {
			m.log.Error("initial save failed", "error", err)
		}
	}

	m.warmChunk(ctx)
	return nil
}

func (m *Manager) generate(ctx context.Context, cfg galaxy.Config) (*galaxy.Galaxy, error) {
	gen := galaxy.NewGenerator(cfg)
	return gen.Generate(ctx, func(p galaxy.Progress) error {
		m.log.Debug("generating", "phase", p.Phase, "done", p.Done, "total", p.Total)
		return nil
	})
}

// restore regenerates the galaxy from the saved seed and reattaches the
// saved exploration state, dropping ids the regenerated galaxy lacks.
func (m *Manager) restore(ctx context.Context, snap *persistence.Snapshot) error {
	g, err := m.generate(ctx, *snap.Config)
	if err != nil {
		return fmt.Errorf("regenerate saved galaxy: %w", err)
	}
	if snap.GeneratorVersion != persistence.GeneratorVersion {
		m.log.Warn("save was made by another generator version",
			"saved", snap.GeneratorVersion, "current", persistence.GeneratorVersion)
	}

	st := snap.Exploration()
	hasSystem := func(id string) bool { return g.System(id) != nil }
	if removed := st.Prune(hasSystem, g.HasPlanet); removed > 0 {
		m.log.Warn("dropped exploration entries unknown to regenerated galaxy", "removed", removed)
	}

	if st.HomeSystemID == "" {
		home := g.FindHomeSystem(m.opts.HomeSearchRadius)
		if home == nil {
			return ErrNoStartingSystem
		}
		st.HomeSystemID = home.ID
		st.MarkExplored(home.ID)
	}
	if st.CurrentSystemID == "" {
		home := g.System(st.HomeSystemID)
		st.CurrentSystemID = home.ID
		st.Position = home.Star.Position
	}

	m.mu.Lock()
	m.galaxy = g
	m.state = st
	m.saveID = snap.SaveID
	m.lastSave = snap.Timestamp
	m.mu.Unlock()

	m.log.Info("game restored",
		"seed", g.Config.Seed,
		"explored", st.ExploredCount(),
		"current", st.CurrentSystemID,
	)
	return nil
}

func (m *Manager) newGame(ctx context.Context, cfg galaxy.Config) error {
	g, err := m.generate(ctx, cfg)
	if err != nil {
		return err
	}

	home := g.FindHomeSystem(m.opts.HomeSearchRadius)
	if home == nil {
		return fmt.Errorf("%w within %.0f ly of the centre", ErrNoStartingSystem, m.opts.HomeSearchRadius)
	}

	st := exploration.NewState()
	st.HomeSystemID = home.ID
	st.MarkExplored(home.ID)
	st.RecordVisit(exploration.Visit{
		SystemID:  home.ID,
		Timestamp: m.opts.Now().UTC(),
		Position:  home.Star.Position,
	})

	m.mu.Lock()
	m.galaxy = g
	m.state = st
	m.mu.Unlock()

	m.log.Info("new game started", "seed", g.Config.Seed, "home", home.ID, "home_name", home.Star.Name)
	return nil
}

func (m *Manager) warmChunk(ctx context.Context) {
	m.mu.RLock()
	if m.state == nil {
		m.mu.RUnlock()
		return
	}
	pos := m.state.Position
	m.mu.RUnlock()

	m.store.LoadChunk(ctx, persistence.ChunkQuery{
		Center:            pos,
		Radius:            m.opts.ChunkRadius,
		MaxSystems:        m.opts.ChunkMaxSystems,
		IncludeUnexplored: true,
	})
}

// Travel moves the player to a system, marking it explored and reloading
// the chunk around the new position.
func (m *Manager) Travel(ctx context.Context, systemID string) (*galaxy.StarSystem, error) {
	m.mu.Lock()
	if m.galaxy == nil {
		m.mu.Unlock()
		return nil, ErrNotInitialized
	}
	sys := m.galaxy.System(systemID)
	if sys == nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownSystem, systemID)
	}

	dist := m.state.Position.Distance(sys.Star.Position)
	m.state.DistanceTraveled += dist
	m.state.MarkExplored(sys.ID)
	m.state.RecordVisit(exploration.Visit{
		SystemID:  sys.ID,
		Timestamp: m.opts.Now().UTC(),
		Position:  sys.Star.Position,
	})
	m.mu.Unlock()

	m.log.Info("travelled", "to", sys.ID, "name", sys.Star.Name, "distance", dist)

	m.store.Chunks().Clear()
	m.warmChunk(ctx)
	return sys, nil
}

// MarkExplored adds a system to the explored set. It reports whether the
// system was newly explored.
func (m *Manager) MarkExplored(systemID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.galaxy == nil {
		return false, ErrNotInitialized
	}
	if m.galaxy.System(systemID) == nil {
		return false, fmt.Errorf("%w: %s", ErrUnknownSystem, systemID)
	}
	return m.state.MarkExplored(systemID), nil
}

// DiscoverPlanet adds a planet to the discovered set, reporting whether it
// was new. A first discovery in the current system is logged as a visit.
func (m *Manager) DiscoverPlanet(planetID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.galaxy == nil {
		return false, ErrNotInitialized
	}
	if !m.galaxy.HasPlanet(planetID) {
		return false, fmt.Errorf("%w: %s", ErrUnknownPlanet, planetID)
	}
	if !m.state.DiscoverPlanet(planetID) {
		return false, nil
	}

	if cur := m.galaxy.System(m.state.CurrentSystemID); cur != nil && cur.Planet(planetID) != nil {
		m.state.RecordVisit(exploration.Visit{
			SystemID:  cur.ID,
			PlanetID:  planetID,
			Timestamp: m.opts.Now().UTC(),
			Position:  cur.Star.Position,
		})
	}
	return true, nil
}

// AdjustReputation shifts the player's standing with a faction.
func (m *Manager) AdjustReputation(faction string, delta float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return 0
	}
	return m.state.AdjustReputation(faction, delta)
}

// OpenTradeRoute links two explored systems. It reports false when the
// route already exists.
func (m *Manager) OpenTradeRoute(from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.galaxy == nil {
		return false, ErrNotInitialized
	}
	for _, id := range []string{from, to} {
		if m.galaxy.System(id) == nil {
			return false, fmt.Errorf("%w: %s", ErrUnknownSystem, id)
		}
		if !m.state.IsExplored(id) {
			return false, fmt.Errorf("%w: system %s not explored", ErrInvalidRoute, id)
		}
	}
	if from == to {
		return false, fmt.Errorf("%w: needs two distinct systems", ErrInvalidRoute)
	}
	return m.state.AddTradeRoute(exploration.TradeRoute{
		From:        from,
		To:          to,
		Established: m.opts.Now().UTC(),
	}), nil
}

// StarsInRadius returns stars near a point, nearest first.
func (m *Manager) StarsInRadius(center galaxy.Vec2, radius float64) []galaxy.Star {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.galaxy == nil {
		return nil
	}
	return m.galaxy.StarsInRadius(center, radius)
}

// SystemByID looks a system up.
func (m *Manager) SystemByID(id string) (*galaxy.StarSystem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.galaxy == nil {
		return nil, false
	}
	sys := m.galaxy.System(id)
	return sys, sys != nil
}

// CurrentSystem returns the system the player is in, if any.
func (m *Manager) CurrentSystem() (*galaxy.StarSystem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.galaxy == nil {
		return nil, false
	}
	sys := m.galaxy.System(m.state.CurrentSystemID)
	return sys, sys != nil
}

// IsExplored reports whether a system has been explored.
func (m *Manager) IsExplored(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state != nil && m.state.IsExplored(id)
}

// Position returns the player's position.
func (m *Manager) Position() galaxy.Vec2 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return galaxy.Vec2{}
	}
	return m.state.Position
}

// Stats summarizes the galaxy and exploration progress.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.galaxy == nil {
		return Stats{}
	}
	c := m.galaxy.Counts()
	return Stats{
		TotalStars:          c.Stars,
		TotalSystems:        c.Systems,
		TotalPlanets:        c.Planets,
		ExploredSystems:     m.state.ExploredCount(),
		DiscoveredPlanets:   m.state.DiscoveredCount(),
		SystemsVisited:      m.state.SystemsVisited,
		DistanceTraveled:    m.state.DistanceTraveled,
		ExplorationProgress: m.state.Progress(c.Systems),
		CurrentSystemID:     m.state.CurrentSystemID,
		HomeSystemID:        m.state.HomeSystemID,
		Seed:                m.galaxy.Config.Seed,
	}
}

// Galaxy returns the generated galaxy. It must not be mutated.
func (m *Manager) Galaxy() *galaxy.Galaxy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.galaxy
}

// Exploration returns a copy of the exploration state.
func (m *Manager) Exploration() *exploration.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return exploration.NewState()
	}
	return m.state.Clone()
}

// Chunk loads systems around the player.
func (m *Manager) Chunk(ctx context.Context, includeUnexplored bool) []persistence.CompactSystem {
	return m.ChunkAt(ctx, persistence.ChunkQuery{
		Center:            m.Position(),
		Radius:            m.opts.ChunkRadius,
		MaxSystems:        m.opts.ChunkMaxSystems,
		IncludeUnexplored: includeUnexplored,
	})
}

// ChunkAt loads systems for an arbitrary query, filtering on the player's
// explored set.
func (m *Manager) ChunkAt(ctx context.Context, q persistence.ChunkQuery) []persistence.CompactSystem {
	q.Explored = m.IsExplored
	return m.store.LoadChunk(ctx, q)
}

// Save writes the current galaxy and exploration state.
func (m *Manager) Save(ctx context.Context) (*persistence.Snapshot, error) {
	m.mu.RLock()
	if m.galaxy == nil {
		m.mu.RUnlock()
		return nil, ErrNotInitialized
	}
	g := m.galaxy
	st := m.state.Clone()
	m.mu.RUnlock()

	snap, err := m.store.Save(ctx, g, st)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.lastSave = snap.Timestamp
	m.saveID = snap.SaveID
	m.mu.Unlock()
	return snap, nil
}

// LastSave returns the id and time of the most recent save or load.
func (m *Manager) LastSave() (string, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveID, m.lastSave
}
