// Package exploration tracks what the player has seen of a generated galaxy.
// It is a side table keyed by generated ids; it never mutates the galaxy.
package exploration

import (
	"sort"
	"time"

	"github.com/talgya/starfield/internal/galaxy"
)

// Visit is one entry in the ordered travel log.
type Visit struct {
	SystemID  string      `json:"systemId"`
	PlanetID  string      `json:"planetId,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Position  galaxy.Vec2 `json:"position"`
}

// TradeRoute links two systems the player has opened trade between.
type TradeRoute struct {
	From        string    `json:"from"`
	To          string    `json:"to"`
	Established time.Time `json:"established"`
}

// State is the mutable exploration record. It is not safe for concurrent
// use; the manager serializes access.
type State struct {
	explored   map[string]struct{}
	discovered map[string]struct{}

	Visits           []Visit
	CurrentSystemID  string
	HomeSystemID     string
	SystemsVisited   int
	DistanceTraveled float64 // ly
	Position         galaxy.Vec2
	Reputation       map[string]float64 // faction → score
	TradeRoutes      []TradeRoute
}

// NewState returns an empty record.
func NewState() *State {
	return &State{
		explored:   make(map[string]struct{}),
		discovered: make(map[string]struct{}),
		Reputation: make(map[string]float64),
	}
}

// MarkExplored adds a system to the explored set. It reports whether the
// system was new; SystemsVisited only grows on the first mark.
func (s *State) MarkExplored(systemID string) bool {
	if _, ok := s.explored[systemID]; ok {
		return false
	}
	s.explored[systemID] = struct{}{}
	s.SystemsVisited++
	return true
}

// IsExplored reports whether the system has been explored.
func (s *State) IsExplored(systemID string) bool {
	_, ok := s.explored[systemID]
	return ok
}

// DiscoverPlanet adds a planet to the discovered set, reporting whether it
// was new.
func (s *State) DiscoverPlanet(planetID string) bool {
	if _, ok := s.discovered[planetID]; ok {
		return false
	}
	s.discovered[planetID] = struct{}{}
	return true
}

// IsDiscovered reports whether the planet has been discovered.
func (s *State) IsDiscovered(planetID string) bool {
	_, ok := s.discovered[planetID]
	return ok
}

// ExploredCount is the size of the explored set.
func (s *State) ExploredCount() int { return len(s.explored) }

// DiscoveredCount is the size of the discovered set.
func (s *State) DiscoveredCount() int { return len(s.discovered) }

// ExploredIDs returns the explored set in sorted order.
func (s *State) ExploredIDs() []string { return sortedKeys(s.explored) }

// DiscoveredIDs returns the discovered set in sorted order.
func (s *State) DiscoveredIDs() []string { return sortedKeys(s.discovered) }

// RecordVisit appends to the travel log and moves the player.
func (s *State) RecordVisit(v Visit) {
	s.Visits = append(s.Visits, v)
	s.CurrentSystemID = v.SystemID
	s.Position = v.Position
}

// Progress is the explored share of all systems, in [0, 1].
func (s *State) Progress(totalSystems int) float64 {
	if totalSystems <= 0 {
		return 0
	}
	p := float64(len(s.explored)) / float64(totalSystems)
	if p > 1 {
		return 1
	}
	return p
}

// AdjustReputation shifts a faction's standing and returns the new score.
func (s *State) AdjustReputation(faction string, delta float64) float64 {
	if s.Reputation == nil {
		s.Reputation = make(map[string]float64)
	}
	s.Reputation[faction] += delta
	return s.Reputation[faction]
}

// AddTradeRoute records a route unless the same pair already exists in
// either direction.
func (s *State) AddTradeRoute(route TradeRoute) bool {
	for _, r := range s.TradeRoutes {
		if (r.From == route.From && r.To == route.To) || (r.From == route.To && r.To == route.From) {
			return false
		}
	}
	s.TradeRoutes = append(s.TradeRoutes, route)
	return true
}

// Prune drops every reference the predicates reject. It is used after a
// load, when the galaxy is regenerated from its seed and saved ids may no
// longer exist. Returns the number of entries removed.
func (s *State) Prune(hasSystem, hasPlanet func(id string) bool) int {
	removed := 0
	for id := range s.explored {
		if !hasSystem(id) {
			delete(s.explored, id)
			removed++
		}
	}
	for id := range s.discovered {
		if !hasPlanet(id) {
			delete(s.discovered, id)
			removed++
		}
	}

	visits := s.Visits[:0]
	for _, v := range s.Visits {
		if !hasSystem(v.SystemID) || (v.PlanetID != "" && !hasPlanet(v.PlanetID)) {
			removed++
			continue
		}
		visits = append(visits, v)
	}
	s.Visits = visits

	routes := s.TradeRoutes[:0]
	for _, r := range s.TradeRoutes {
		if !hasSystem(r.From) || !hasSystem(r.To) {
			removed++
			continue
		}
		routes = append(routes, r)
	}
	s.TradeRoutes = routes

	if s.CurrentSystemID != "" && !hasSystem(s.CurrentSystemID) {
		s.CurrentSystemID = ""
		removed++
	}
	if s.HomeSystemID != "" && !hasSystem(s.HomeSystemID) {
		s.HomeSystemID = ""
		removed++
	}
	if s.SystemsVisited < len(s.explored) {
		s.SystemsVisited = len(s.explored)
	}
	return removed
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	c.explored = make(map[string]struct{}, len(s.explored))
	for id := range s.explored {
		c.explored[id] = struct{}{}
	}
	c.discovered = make(map[string]struct{}, len(s.discovered))
	for id := range s.discovered {
		c.discovered[id] = struct{}{}
	}
	c.Reputation = make(map[string]float64, len(s.Reputation))
	for k, v := range s.Reputation {
		c.Reputation[k] = v
	}
	c.Visits = append([]Visit(nil), s.Visits...)
	c.TradeRoutes = append([]TradeRoute(nil), s.TradeRoutes...)
	return &c
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
