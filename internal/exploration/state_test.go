package exploration

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/starfield/internal/galaxy"
)

func TestMarkExploredIsIdempotent(t *testing.T) {
	s := NewState()

	assert.True(t, s.MarkExplored("star_0001"))
	assert.False(t, s.MarkExplored("star_0001"))
	assert.Equal(t, 1, s.ExploredCount())
	assert.Equal(t, 1, s.SystemsVisited)
	assert.True(t, s.IsExplored("star_0001"))
	assert.False(t, s.IsExplored("star_0002"))
}

func TestDiscoverPlanetIsIdempotent(t *testing.T) {
	s := NewState()

	assert.True(t, s.DiscoverPlanet("star_0001_p0"))
	assert.False(t, s.DiscoverPlanet("star_0001_p0"))
	assert.Equal(t, 1, s.DiscoveredCount())
	assert.True(t, s.IsDiscovered("star_0001_p0"))
}

func TestSortedIDs(t *testing.T) {
	s := NewState()
	for _, id := range []string{"star_0009", "star_0002", "star_0005"} {
		s.MarkExplored(id)
	}
	assert.Equal(t, []string{"star_0002", "star_0005", "star_0009"}, s.ExploredIDs())
	assert.Empty(t, s.DiscoveredIDs())
}

func TestRecordVisitMovesPlayer(t *testing.T) {
	s := NewState()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.RecordVisit(Visit{SystemID: "star_0003", Timestamp: at, Position: galaxy.Vec2{X: 10, Y: -4}})

	require.Len(t, s.Visits, 1)
	assert.Equal(t, "star_0003", s.CurrentSystemID)
	assert.Equal(t, galaxy.Vec2{X: 10, Y: -4}, s.Position)
}

func TestProgress(t *testing.T) {
	s := NewState()
	assert.Zero(t, s.Progress(0))

	s.MarkExplored("a")
	s.MarkExplored("b")
	assert.InDelta(t, 0.5, s.Progress(4), 1e-12)
	assert.Equal(t, 1.0, s.Progress(1))
}

func TestReputationAndTradeRoutes(t *testing.T) {
	s := NewState()
	assert.Equal(t, 5.0, s.AdjustReputation("guild", 5))
	assert.Equal(t, 3.5, s.AdjustReputation("guild", -1.5))

	assert.True(t, s.AddTradeRoute(TradeRoute{From: "a", To: "b"}))
	assert.False(t, s.AddTradeRoute(TradeRoute{From: "b", To: "a"}))
	assert.Len(t, s.TradeRoutes, 1)
}

func TestPruneDropsUnknownIDs(t *testing.T) {
	s := NewState()
	s.MarkExplored("star_0001")
	s.MarkExplored("gone_0002")
	s.DiscoverPlanet("star_0001_p0")
	s.DiscoverPlanet("star_0001_p7")
	s.RecordVisit(Visit{SystemID: "star_0001"})
	s.RecordVisit(Visit{SystemID: "gone_0002"})
	s.HomeSystemID = "star_0001"
	s.AddTradeRoute(TradeRoute{From: "star_0001", To: "gone_0002"})

	hasSystem := func(id string) bool { return !strings.HasPrefix(id, "gone") }
	hasPlanet := func(id string) bool { return id == "star_0001_p0" }

	removed := s.Prune(hasSystem, hasPlanet)
	assert.Equal(t, 5, removed)
	assert.Equal(t, []string{"star_0001"}, s.ExploredIDs())
	assert.Equal(t, []string{"star_0001_p0"}, s.DiscoveredIDs())
	assert.Len(t, s.Visits, 1)
	assert.Empty(t, s.TradeRoutes)
	assert.Empty(t, s.CurrentSystemID)
	assert.Equal(t, "star_0001", s.HomeSystemID)
}

func TestCloneIsDeep(t *testing.T) {
	s := NewState()
	s.MarkExplored("a")
	s.AdjustReputation("guild", 1)
	s.RecordVisit(Visit{SystemID: "a"})

	c := s.Clone()
	c.MarkExplored("b")
	c.AdjustReputation("guild", 1)
	c.RecordVisit(Visit{SystemID: "b"})

	assert.Equal(t, 1, s.ExploredCount())
	assert.Equal(t, 1.0, s.Reputation["guild"])
	assert.Len(t, s.Visits, 1)
	assert.Equal(t, 2, c.ExploredCount())
}
