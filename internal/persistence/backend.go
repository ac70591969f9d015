// Package persistence stores galaxy snapshots and serves spatial chunks of
// them. Storage is abstracted as put/get over one or more backends; the
// preferred backend is tried first and later ones act as fallbacks.
package persistence

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no usable snapshot exists. Validation
// failures on load are reported as not-found as well.
var ErrNotFound = errors.New("snapshot not found")

// Backend is a key/value blob store.
type Backend interface {
	Name() string
	Put(ctx context.Context, key string, data []byte) error
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
}

// Box is an axis-aligned region in light-years.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// ChunkIndex is implemented by backends that can answer spatial queries
// without decoding the whole snapshot.
type ChunkIndex interface {
	// IndexSystems replaces the indexed system set.
	IndexSystems(ctx context.Context, systems []CompactSystem) error
	// QueryBox returns indexed systems whose star lies inside box.
	QueryBox(ctx context.Context, box Box) ([]CompactSystem, error)
}
