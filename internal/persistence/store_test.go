package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/starfield/internal/galaxy"
)

// failingBackend rejects every call.
type failingBackend struct {
	name string
	err  error
}

func (f failingBackend) Name() string { return f.name }

func (f failingBackend) Put(context.Context, string, []byte) error { return f.err }

func (f failingBackend) Get(context.Context, string) ([]byte, error) { return nil, f.err }

func openTestSQLite(t *testing.T) *SQLiteBackend {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "galaxy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreSaveLoadMemory(t *testing.T) {
	ctx := context.Background()
	g := testGalaxy(t)
	st := testState(g)
	store := NewStore(NewMemoryBackend())

	saved, err := store.Save(ctx, g, st)
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.SaveID, loaded.SaveID)
	assert.Equal(t, st.ExploredIDs(), loaded.ExploredSystems)
}

func TestStoreLoadEmptyIsNotFound(t *testing.T) {
	store := NewStore(NewMemoryBackend(), NewMemoryBackend())
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreFallsBackToSecondaryBackend(t *testing.T) {
	ctx := context.Background()
	g := testGalaxy(t)
	mem := NewMemoryBackend()
	store := NewStore(failingBackend{name: "broken", err: errors.New("disk full")}, mem)

	_, err := store.Save(ctx, g, testState(g))
	require.NoError(t, err)

	_, err = mem.Get(ctx, SnapshotKey)
	require.NoError(t, err)

	_, err = store.Load(ctx)
	assert.NoError(t, err)
}

func TestStoreSaveFailsWhenAllBackendsFail(t *testing.T) {
	g := testGalaxy(t)
	errA := errors.New("a down")
	errB := errors.New("b down")
	store := NewStore(failingBackend{"a", errA}, failingBackend{"b", errB})

	_, err := store.Save(context.Background(), g, testState(g))
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)

	_, err = NewStore().Save(context.Background(), g, testState(g))
	assert.ErrorIs(t, err, ErrNoBackends)
}

func TestStoreLoadFailsClosedOnCorruptData(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryBackend()
	require.NoError(t, mem.Put(ctx, SnapshotKey, []byte("garbage")))

	_, err := NewStore(mem).Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

// withinQuery counts the systems a query should return.
func withinQuery(g *galaxy.Galaxy, q ChunkQuery) int {
	n := 0
	for _, sys := range g.Systems {
		if CompressSystem(sys).Position().Distance(q.Center) <= q.Radius {
			n++
		}
	}
	return n
}

func TestStoreLoadSkipsCorruptPreferredBackend(t *testing.T) {
	ctx := context.Background()
	g := testGalaxy(t)
	bad := NewMemoryBackend()
	good := NewMemoryBackend()

	saved, err := NewStore(good).Save(ctx, g, testState(g))
	require.NoError(t, err)
	require.NoError(t, bad.Put(ctx, SnapshotKey, []byte("garbage")))

	loaded, err := NewStore(bad, good).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.SaveID, loaded.SaveID)
}

func TestLoadChunkContainmentAndOrder(t *testing.T) {
	ctx := context.Background()
	g := testGalaxy(t)
	st := testState(g)
	store := NewStore(NewMemoryBackend())
	_, err := store.Save(ctx, g, st)
	require.NoError(t, err)

	q := ChunkQuery{Center: g.Systems[10].Star.Position, Radius: 1800, IncludeUnexplored: true}
	chunk := store.LoadChunk(ctx, q)
	require.NotEmpty(t, chunk)

	for i, sys := range chunk {
		assert.LessOrEqual(t, sys.Position().Distance(q.Center), q.Radius, sys.ID)
		if i > 0 {
			prev := chunk[i-1].Position().Distance(q.Center)
			assert.LessOrEqual(t, prev, sys.Position().Distance(q.Center))
		}
	}
	want := withinQuery(g, q)
	assert.Len(t, chunk, want)
	assert.Equal(t, g.Systems[10].ID, chunk[0].ID)

	capped := store.LoadChunk(ctx, ChunkQuery{Center: q.Center, Radius: q.Radius, MaxSystems: 3, IncludeUnexplored: true})
	assert.Len(t, capped, min(3, want))
	assert.Equal(t, chunk[:len(capped)], capped)
	assert.Equal(t, 1, store.Chunks().Len())
}

func TestLoadChunkSmallRadiusOffGrid(t *testing.T) {
	ctx := context.Background()
	g := testGalaxy(t)
	store := NewStore(NewMemoryBackend())
	_, err := store.Save(ctx, g, testState(g))
	require.NoError(t, err)

	for _, sys := range g.Systems[:20] {
		q := ChunkQuery{Center: sys.Star.Position, Radius: 150, IncludeUnexplored: true}
		chunk := store.LoadChunk(ctx, q)
		require.NotEmpty(t, chunk, sys.ID)
		assert.Equal(t, sys.ID, chunk[0].ID, "a chunk centred on a system starts with it")
		assert.Len(t, chunk, withinQuery(g, q), sys.ID)
		for _, c := range chunk {
			assert.LessOrEqual(t, c.Position().Distance(q.Center), q.Radius, c.ID)
		}
	}
}

func TestLoadChunkSharedKeyKeepsQueryGeometry(t *testing.T) {
	ctx := context.Background()
	g := testGalaxy(t)
	store := NewStore(NewMemoryBackend())
	_, err := store.Save(ctx, g, testState(g))
	require.NoError(t, err)

	a := ChunkQuery{Center: galaxy.Vec2{X: 1450, Y: -1450}, Radius: 640, IncludeUnexplored: true}
	b := ChunkQuery{Center: galaxy.Vec2{X: 550, Y: -550}, Radius: 610, IncludeUnexplored: true}
	require.Equal(t, KeyFor(a), KeyFor(b))

	for _, q := range []ChunkQuery{a, b} {
		chunk := store.LoadChunk(ctx, q)
		assert.Len(t, chunk, withinQuery(g, q))
		for _, c := range chunk {
			assert.LessOrEqual(t, c.Position().Distance(q.Center), q.Radius, c.ID)
		}
	}
	assert.Equal(t, 1, store.Chunks().Len())
}

func TestLoadChunkExploredOnly(t *testing.T) {
	ctx := context.Background()
	g := testGalaxy(t)
	st := testState(g)
	store := NewStore(NewMemoryBackend())
	_, err := store.Save(ctx, g, st)
	require.NoError(t, err)

	chunk := store.LoadChunk(ctx, ChunkQuery{
		Center:   galaxy.Vec2{},
		Radius:   g.Config.Size * 2,
		Explored: st.IsExplored,
	})
	require.Len(t, chunk, st.ExploredCount())
	for _, sys := range chunk {
		assert.True(t, st.IsExplored(sys.ID))
	}

	none := store.LoadChunk(ctx, ChunkQuery{Center: galaxy.Vec2{}, Radius: g.Config.Size * 2})
	assert.Empty(t, none)
}

func TestLoadChunkWithoutSnapshotIsEmpty(t *testing.T) {
	store := NewStore(NewMemoryBackend())
	chunk := store.LoadChunk(context.Background(), ChunkQuery{Radius: 1000, IncludeUnexplored: true})
	assert.NotNil(t, chunk)
	assert.Empty(t, chunk)
	assert.Zero(t, store.Chunks().Len())
}

func TestSaveClearsChunkCache(t *testing.T) {
	ctx := context.Background()
	g := testGalaxy(t)
	store := NewStore(NewMemoryBackend())
	_, err := store.Save(ctx, g, testState(g))
	require.NoError(t, err)

	store.LoadChunk(ctx, ChunkQuery{Radius: 2000, IncludeUnexplored: true})
	require.Equal(t, 1, store.Chunks().Len())

	_, err = store.Save(ctx, g, testState(g))
	require.NoError(t, err)
	assert.Zero(t, store.Chunks().Len())
}

func TestSQLiteBackendSnapshotAndIndex(t *testing.T) {
	ctx := context.Background()
	g := testGalaxy(t)
	st := testState(g)
	db := openTestSQLite(t)
	store := NewStore(db)

	saved, err := store.Save(ctx, g, st)
	require.NoError(t, err)

	id, err := db.GetMeta(ctx, metaIndexedSaved)
	require.NoError(t, err)
	assert.Equal(t, saved.SaveID, id)

	box := Box{MinX: -1000, MinY: -1000, MaxX: 1000, MaxY: 1000}
	inBox, err := db.QueryBox(ctx, box)
	require.NoError(t, err)
	for _, sys := range inBox {
		assert.GreaterOrEqual(t, sys.X, box.MinX)
		assert.LessOrEqual(t, sys.X, box.MaxX)
		assert.GreaterOrEqual(t, sys.Y, box.MinY)
		assert.LessOrEqual(t, sys.Y, box.MaxY)
	}

	// A fresh store over the same file adopts the index on load and serves
	// the same chunk as the scanning path.
	reopened := NewStore(db)
	loaded, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.SaveID, loaded.SaveID)

	q := ChunkQuery{Center: galaxy.Vec2{X: 900, Y: -400}, Radius: 2500, IncludeUnexplored: true}
	viaIndex := reopened.LoadChunk(ctx, q)

	mem := NewMemoryBackend()
	scanning := NewStore(mem)
	_, err = scanning.Save(ctx, g, st)
	require.NoError(t, err)
	viaScan := scanning.LoadChunk(ctx, q)

	assert.Equal(t, viaScan, viaIndex)
}

func TestSQLiteBackendMissingKey(t *testing.T) {
	db := openTestSQLite(t)
	_, err := db.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = db.GetMeta(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisBackend(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backend := NewRedisBackend(client, "starfield:")
	t.Cleanup(func() { backend.Close() })

	_, err := backend.Get(ctx, SnapshotKey)
	assert.ErrorIs(t, err, ErrNotFound)

	g := testGalaxy(t)
	store := NewStore(backend)
	saved, err := store.Save(ctx, g, testState(g))
	require.NoError(t, err)
	assert.True(t, mr.Exists("starfield:"+SnapshotKey))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.SaveID, loaded.SaveID)
}

func TestRedisFallbackWhenSQLiteFails(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	backend := NewRedisBackend(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	t.Cleanup(func() { backend.Close() })

	db := openTestSQLite(t)
	require.NoError(t, db.Close())

	g := testGalaxy(t)
	store := NewStore(db, backend)
	_, err := store.Save(ctx, g, testState(g))
	require.NoError(t, err)
	assert.True(t, mr.Exists(SnapshotKey))

	chunk := store.LoadChunk(ctx, ChunkQuery{Radius: 3000, IncludeUnexplored: true})
	assert.NotEmpty(t, chunk)
}
