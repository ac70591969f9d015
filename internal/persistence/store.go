package persistence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/starfield/internal/exploration"
	"github.com/talgya/starfield/internal/galaxy"
)

// SnapshotKey is the backend key holding the current save.
const SnapshotKey = "galaxy:snapshot"

// Meta keys written to backends that support metadata.
const (
	metaLastSaveID   = "last_save_id"
	metaLastSaveAt   = "last_save_at"
	metaIndexedSaved = "indexed_save_id"
)

// ErrNoBackends is returned by Save when the store has nothing to write to.
var ErrNoBackends = errors.New("no storage backends configured")

type metaStore interface {
	SaveMeta(ctx context.Context, key, value string) error
	GetMeta(ctx context.Context, key string) (string, error)
}

// Store saves and loads snapshots across an ordered list of backends and
// serves cached spatial chunks of the current save.
type Store struct {
	backends []Backend
	chunks   *ChunkCache
	log      *slog.Logger
	now      func() time.Time

	mu    sync.RWMutex
	index ChunkIndex // in sync with the last saved or loaded snapshot
}

// NewStore creates a store. Backends are tried in order: the first is the
// preferred store, the rest are fallbacks.
func NewStore(backends ...Backend) *Store {
	return &Store{
		backends: backends,
		chunks:   NewChunkCache(DefaultChunkCacheSize),
		log:      slog.With("component", "persistence"),
		now:      time.Now,
	}
}

// WithChunkCacheSize replaces the chunk cache with one of the given size.
func (s *Store) WithChunkCacheSize(n int) *Store {
	s.chunks = NewChunkCache(n)
	return s
}

// Chunks exposes the chunk cache.
func (s *Store) Chunks() *ChunkCache {
	return s.chunks
}

// Backends lists backend names in preference order.
func (s *Store) Backends() []string {
	names := make([]string, len(s.backends))
	for i, b := range s.backends {
		names[i] = b.Name()
	}
	return names
}

// Save writes a snapshot to the first backend that accepts it. It only
// fails when every backend fails.
func (s *Store) Save(ctx context.Context, g *galaxy.Galaxy, st *exploration.State) (*Snapshot, error) {
	if len(s.backends) == 0 {
		return nil, ErrNoBackends
	}

	snap := NewSnapshot(g, st, s.now())
	data, err := Encode(snap)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, b := range s.backends {
		if err := b.Put(ctx, SnapshotKey, data); err != nil {
			s.log.Warn("snapshot write failed, trying next backend", "backend", b.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}

		s.afterWrite(ctx, b, snap)
		s.log.Info("snapshot saved",
			"backend", b.Name(),
			"save_id", snap.SaveID,
			"size", humanize.Bytes(uint64(len(data))),
			"systems", len(snap.Systems),
		)
		return snap, nil
	}
	return nil, fmt.Errorf("save snapshot: all backends failed: %w", errors.Join(errs...))
}

// afterWrite refreshes the spatial index and metadata of the backend that
// took the save. Failures here only cost speed: chunks fall back to
// scanning the snapshot.
func (s *Store) afterWrite(ctx context.Context, b Backend, snap *Snapshot) {
	var index ChunkIndex
	if idx, ok := b.(ChunkIndex); ok {
		if err := idx.IndexSystems(ctx, snap.Systems); err != nil {
			s.log.Warn("system index rebuild failed", "backend", b.Name(), "error", err)
		} else {
			index = idx
		}
	}

	if m, ok := b.(metaStore); ok {
		meta := map[string]string{
			metaLastSaveID: snap.SaveID,
			metaLastSaveAt: snap.Timestamp.Format(time.RFC3339),
		}
		if index != nil {
			meta[metaIndexedSaved] = snap.SaveID
		}
		for k, v := range meta {
			if err := m.SaveMeta(ctx, k, v); err != nil {
				s.log.Warn("save meta failed", "key", k, "error", err)
			}
		}
	}

	s.mu.Lock()
	s.index = index
	s.mu.Unlock()
	s.chunks.Clear()
}

// Load returns the snapshot from the first backend holding one. A snapshot
// that fails validation is reported as ErrNotFound; nothing partial is ever
// returned.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	snap, b, size, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	s.adoptIndex(ctx, b, snap)
	s.log.Info("snapshot loaded",
		"backend", b.Name(),
		"save_id", snap.SaveID,
		"version", snap.Version,
		"size", humanize.Bytes(uint64(size)),
	)
	return snap, nil
}

func (s *Store) read(ctx context.Context) (*Snapshot, Backend, int, error) {
	var rejected []error
	for _, b := range s.backends {
		data, err := b.Get(ctx, SnapshotKey)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			s.log.Warn("snapshot read failed, trying next backend", "backend", b.Name(), "error", err)
			continue
		}

		snap, err := Decode(data)
		if err != nil {
			s.log.Warn("snapshot rejected, trying next backend", "backend", b.Name(), "error", err)
			rejected = append(rejected, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}
		return snap, b, len(data), nil
	}
	if len(rejected) > 0 {
		return nil, nil, 0, fmt.Errorf("%w: %v", ErrNotFound, errors.Join(rejected...))
	}
	return nil, nil, 0, ErrNotFound
}

// adoptIndex uses the backend's spatial index only if it was built from
// the snapshot just loaded.
func (s *Store) adoptIndex(ctx context.Context, b Backend, snap *Snapshot) {
	var index ChunkIndex
	idx, isIndex := b.(ChunkIndex)
	m, isMeta := b.(metaStore)
	if isIndex && isMeta {
		if id, err := m.GetMeta(ctx, metaIndexedSaved); err == nil && id == snap.SaveID {
			index = idx
		}
	}

	s.mu.Lock()
	s.index = index
	s.mu.Unlock()
	s.chunks.Clear()
}

// LoadChunk returns the systems within q.Radius of q.Center, nearest
// first. Quantized keys (see ChunkKey) only decide which cached region
// serves the query; containment and order are measured from q.Center.
// Errors are logged and produce an empty result.
func (s *Store) LoadChunk(ctx context.Context, q ChunkQuery) []CompactSystem {
	key := KeyFor(q)
	region, err := s.chunks.GetOrLoad(key, func() ([]CompactSystem, error) {
		return s.loadRegion(ctx, key)
	})
	if err != nil {
		s.log.Warn("chunk load failed", "chunk", key.String(), "error", err)
		return []CompactSystem{}
	}

	type hit struct {
		sys  CompactSystem
		dist float64
	}
	hits := make([]hit, 0, len(region))
	for _, sys := range region {
		d := sys.Position().Distance(q.Center)
		if d > q.Radius {
			continue
		}
		if !q.IncludeUnexplored && (q.Explored == nil || !q.Explored(sys.ID)) {
			continue
		}
		hits = append(hits, hit{sys, d})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].sys.ID < hits[j].sys.ID
	})
	if q.MaxSystems > 0 && len(hits) > q.MaxSystems {
		hits = hits[:q.MaxSystems]
	}

	result := make([]CompactSystem, len(hits))
	for i, h := range hits {
		result[i] = h.sys
	}
	return result
}

// loadRegion reads every system a query mapped to key can reach: the
// key radius plus the largest offset between a query centre and its
// snapped centre.
func (s *Store) loadRegion(ctx context.Context, key ChunkKey) ([]CompactSystem, error) {
	center := key.Center()
	reach := key.R + chunkCenterStep*math.Sqrt2/2
	box := Box{MinX: center.X - reach, MinY: center.Y - reach, MaxX: center.X + reach, MaxY: center.Y + reach}

	s.mu.RLock()
	index := s.index
	s.mu.RUnlock()

	var candidates []CompactSystem
	if index != nil {
		var err error
		candidates, err = index.QueryBox(ctx, box)
		if err != nil {
			return nil, err
		}
	} else {
		snap, _, _, err := s.read(ctx)
		if err != nil {
			return nil, err
		}
		candidates = snap.Systems
	}

	region := make([]CompactSystem, 0, len(candidates))
	for _, sys := range candidates {
		if sys.Position().Distance(center) <= reach {
			region = append(region, sys)
		}
	}
	sort.Slice(region, func(i, j int) bool { return region[i].ID < region[j].ID })
	return region, nil
}

// Close closes every backend that holds resources.
func (s *Store) Close() error {
	var errs []error
	for _, b := range s.backends {
		if c, ok := b.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
