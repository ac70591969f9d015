package persistence

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/talgya/starfield/internal/galaxy"
)

// Chunk quantization steps in light-years.
const (
	chunkCenterStep = 1000.0
	chunkRadiusStep = 100.0
)

// DefaultChunkCacheSize bounds the number of cached chunks.
const DefaultChunkCacheSize = 256

// ChunkQuery asks for the systems around a point.
type ChunkQuery struct {
	Center            galaxy.Vec2
	Radius            float64
	MaxSystems        int
	IncludeUnexplored bool
	// Explored filters results when IncludeUnexplored is false. Nil means
	// nothing is explored.
	Explored func(systemID string) bool
}

// ChunkKey identifies a cached chunk. Centers snap to the nearest 1000 ly
// and radii round up to the next 100 ly, so nearby queries share entries.
// A cached chunk covers every query that maps to its key; the distance
// filter, explored filter and result cap are applied per query.
type ChunkKey struct {
	X, Y float64
	R    float64
}

// KeyFor quantizes a query.
func KeyFor(q ChunkQuery) ChunkKey {
	r := math.Ceil(q.Radius/chunkRadiusStep) * chunkRadiusStep
	if r < chunkRadiusStep {
		r = chunkRadiusStep
	}
	return ChunkKey{
		X: math.Round(q.Center.X/chunkCenterStep) * chunkCenterStep,
		Y: math.Round(q.Center.Y/chunkCenterStep) * chunkCenterStep,
		R: r,
	}
}

// Center returns the quantized chunk centre.
func (k ChunkKey) Center() galaxy.Vec2 {
	return galaxy.Vec2{X: k.X, Y: k.Y}
}

func (k ChunkKey) String() string {
	return fmt.Sprintf("%g:%g:%g", k.X, k.Y, k.R)
}

type chunkEntry struct {
	key        ChunkKey
	systems    []CompactSystem
	prev, next int
}

// ChunkCache is a bounded LRU of chunk results. Entries live in a slice
// arena linked by index; the map points into the arena.
type ChunkCache struct {
	mu       sync.Mutex
	capacity int
	arena    []chunkEntry
	index    map[ChunkKey]int
	free     []int
	head     int // most recent, -1 when empty
	tail     int // least recent
	gen      uint64

	group singleflight.Group
}

// NewChunkCache creates a cache holding at most capacity chunks.
func NewChunkCache(capacity int) *ChunkCache {
	if capacity <= 0 {
		capacity = DefaultChunkCacheSize
	}
	return &ChunkCache{
		capacity: capacity,
		index:    make(map[ChunkKey]int, capacity),
		head:     -1,
		tail:     -1,
	}
}

// Get returns a cached chunk and marks it recently used.
func (c *ChunkCache) Get(key ChunkKey) ([]CompactSystem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(i)
	return c.arena[i].systems, true
}

// Put stores a chunk, evicting the least recently used entry when full.
func (c *ChunkCache) Put(key ChunkKey, systems []CompactSystem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, systems)
}

func (c *ChunkCache) put(key ChunkKey, systems []CompactSystem) {
	if i, ok := c.index[key]; ok {
		c.arena[i].systems = systems
		c.moveToFront(i)
		return
	}

	if len(c.index) >= c.capacity {
		c.evict(c.tail)
	}

	var i int
	if n := len(c.free); n > 0 {
		i = c.free[n-1]
		c.free = c.free[:n-1]
		c.arena[i] = chunkEntry{key: key, systems: systems, prev: -1, next: -1}
	} else {
		i = len(c.arena)
		c.arena = append(c.arena, chunkEntry{key: key, systems: systems, prev: -1, next: -1})
	}
	c.index[key] = i
	c.pushFront(i)
}

// GetOrLoad returns the cached chunk or runs load once for all concurrent
// callers asking for the same key. A Clear that happens while load runs
// keeps the stale result out of the cache.
func (c *ChunkCache) GetOrLoad(key ChunkKey, load func() ([]CompactSystem, error)) ([]CompactSystem, error) {
	if systems, ok := c.Get(key); ok {
		return systems, nil
	}

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		systems, err := load()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.put(key, systems)
		}
		c.mu.Unlock()
		return systems, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]CompactSystem), nil
}

// Clear drops every cached chunk.
func (c *ChunkCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arena = c.arena[:0]
	c.free = c.free[:0]
	clear(c.index)
	c.head, c.tail = -1, -1
	c.gen++
}

// Len is the number of cached chunks.
func (c *ChunkCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *ChunkCache) pushFront(i int) {
	c.arena[i].prev = -1
	c.arena[i].next = c.head
	if c.head >= 0 {
		c.arena[c.head].prev = i
	}
	c.head = i
	if c.tail < 0 {
		c.tail = i
	}
}

func (c *ChunkCache) unlink(i int) {
	e := &c.arena[i]
	if e.prev >= 0 {
		c.arena[e.prev].next = e.next
	} else {
		c.head = e.next
	}
	if e.next >= 0 {
		c.arena[e.next].prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = -1, -1
}

func (c *ChunkCache) moveToFront(i int) {
	if c.head == i {
		return
	}
	c.unlink(i)
	c.pushFront(i)
}

func (c *ChunkCache) evict(i int) {
	if i < 0 {
		return
	}
	c.unlink(i)
	delete(c.index, c.arena[i].key)
	c.arena[i].systems = nil
	c.free = append(c.free, i)
}
