// ABOUTME: Behavioral tests shared by every Store backend.
// ABOUTME: Runs one contract suite against memory and sqlite, plus backend-specific checks.
package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCollection = "notes_test"

func newPoint(text string, vec ...float32) Point {
	return Point{ID: uuid.New(), Vector: vec, Payload: map[string]any{"text": text}}
}

// runStoreContract exercises behavior every backend must share.
// Error identity is only asserted by the local backends' own tests.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("create and exists", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		exists, err := s.CollectionExists(ctx, testCollection)
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, s.CreateCollection(ctx, testCollection, 3, DistanceCosine))

		exists, err = s.CollectionExists(ctx, testCollection)
		require.NoError(t, err)
		assert.True(t, exists)

		assert.Error(t, s.CreateCollection(ctx, testCollection, 3, DistanceCosine))
	})

	t.Run("ensure collection is idempotent", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		created, err := EnsureCollection(ctx, s, testCollection, 3, DistanceCosine)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = EnsureCollection(ctx, s, testCollection, 3, DistanceCosine)
		require.NoError(t, err)
		assert.False(t, created)

		n, err := s.Count(ctx, testCollection)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("upsert then scroll keeps insertion order", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.CreateCollection(ctx, testCollection, 3, DistanceCosine))

		first := newPoint("Buy milk", 1, 0, 0)
		second := newPoint("Buy bread", 0, 1, 0)
		require.NoError(t, s.Upsert(ctx, testCollection, first))
		require.NoError(t, s.Upsert(ctx, testCollection, second))

		points, err := s.Scroll(ctx, testCollection, 10)
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.Equal(t, first.ID, points[0].ID)
		assert.Equal(t, "Buy milk", points[0].Payload["text"])
		assert.Equal(t, second.ID, points[1].ID)

		n, err := s.Count(ctx, testCollection)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("upsert overwrites by id", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.CreateCollection(ctx, testCollection, 3, DistanceCosine))

		p := newPoint("draft", 1, 0, 0)
		require.NoError(t, s.Upsert(ctx, testCollection, p))
		p.Payload = map[string]any{"text": "final"}
		require.NoError(t, s.Upsert(ctx, testCollection, p))

		n, err := s.Count(ctx, testCollection)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		points, err := s.Scroll(ctx, testCollection, 10)
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.Equal(t, "final", points[0].Payload["text"])
	})

	t.Run("search ranks by cosine similarity", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.CreateCollection(ctx, testCollection, 3, DistanceCosine))

		far := newPoint("far", 0, 0, 1)
		near := newPoint("near", 1, 0.1, 0)
		mid := newPoint("mid", 1, 1, 0)
		for _, p := range []Point{far, near, mid} {
			require.NoError(t, s.Upsert(ctx, testCollection, p))
		}

		results, err := s.Search(ctx, testCollection, []float32{1, 0, 0}, 10)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, near.ID, results[0].ID)
		assert.Equal(t, mid.ID, results[1].ID)
		assert.Equal(t, far.ID, results[2].ID)
		assert.Equal(t, "near", results[0].Payload["text"])
		assert.InDelta(t, 0.995, results[0].Score, 0.01)
		assert.InDelta(t, 0.0, results[2].Score, 0.01)
		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
		}
	})

	t.Run("limit caps both modes", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.CreateCollection(ctx, testCollection, 3, DistanceCosine))

		for i := 0; i < 5; i++ {
			require.NoError(t, s.Upsert(ctx, testCollection, newPoint("n", 1, float32(i), 0)))
		}

		points, err := s.Scroll(ctx, testCollection, 3)
		require.NoError(t, err)
		assert.Len(t, points, 3)

		results, err := s.Search(ctx, testCollection, []float32{1, 0, 0}, 3)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})

	t.Run("empty collection", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.CreateCollection(ctx, testCollection, 3, DistanceCosine))

		points, err := s.Scroll(ctx, testCollection, 10)
		require.NoError(t, err)
		assert.Empty(t, points)

		results, err := s.Search(ctx, testCollection, []float32{1, 0, 0}, 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("rejects wrong dimension", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.CreateCollection(ctx, testCollection, 3, DistanceCosine))

		assert.Error(t, s.Upsert(ctx, testCollection, newPoint("short", 1, 0)))

		n, err := s.Count(ctx, testCollection)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

// runLocalErrorChecks asserts sentinel errors for backends that produce them.
func runLocalErrorChecks(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("missing collection", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Count(ctx, "missing")
		assert.ErrorIs(t, err, ErrCollectionNotFound)
		_, err = s.Scroll(ctx, "missing", 10)
		assert.ErrorIs(t, err, ErrCollectionNotFound)
		_, err = s.Search(ctx, "missing", []float32{1}, 10)
		assert.ErrorIs(t, err, ErrCollectionNotFound)
		assert.ErrorIs(t, s.Upsert(ctx, "missing", newPoint("x", 1)), ErrCollectionNotFound)
	})

	t.Run("sentinels", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateCollection(ctx, testCollection, 3, DistanceCosine))

		assert.ErrorIs(t, s.CreateCollection(ctx, testCollection, 3, DistanceCosine), ErrCollectionExists)
		assert.ErrorIs(t, s.Upsert(ctx, testCollection, newPoint("x", 1, 2)), ErrDimensionMismatch)
		_, err := s.Search(ctx, testCollection, []float32{1, 2, 3, 4}, 10)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
		assert.ErrorIs(t, s.CreateCollection(ctx, "dot", 3, Distance("dot")), ErrUnsupportedDistance)
	})
}

func newMemory(t *testing.T) Store {
	s := NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newSQLite(t *testing.T) Store {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "data", "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, newMemory)
	runLocalErrorChecks(t, newMemory)
}

func TestSQLiteStore(t *testing.T) {
	runStoreContract(t, newSQLite)
	runLocalErrorChecks(t, newSQLite)
}

func TestSQLiteStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.db")

	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.CreateCollection(ctx, testCollection, 3, DistanceCosine))
	p := newPoint("Buy milk", 1, 2, 3)
	require.NoError(t, s.Upsert(ctx, testCollection, p))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	points, err := reopened.Scroll(ctx, testCollection, 10)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, p.ID, points[0].ID)
	assert.Equal(t, []float32{1, 2, 3}, points[0].Vector)
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateCollection(ctx, testCollection, 2, DistanceCosine))

	p := newPoint("original", 1, 0)
	require.NoError(t, s.Upsert(ctx, testCollection, p))
	p.Payload["text"] = "mutated"
	p.Vector[0] = 9

	points, err := s.Scroll(ctx, testCollection, 10)
	require.NoError(t, err)
	assert.Equal(t, "original", points[0].Payload["text"])
	assert.Equal(t, float32(1), points[0].Vector[0])
}

func TestVectorEncodingRoundtrip(t *testing.T) {
	vec := []float32{0, 1.5, -2.25, 3.4028235e38}
	got, err := DecodeVector(EncodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, got)

	_, err = DecodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

type existsErrStore struct{ Store }

func (existsErrStore) CollectionExists(context.Context, string) (bool, error) {
	return false, assert.AnError
}

func TestEnsureCollectionPropagatesErrors(t *testing.T) {
	_, err := EnsureCollection(context.Background(), existsErrStore{NewMemoryStore()}, "x", 3, DistanceCosine)
	assert.ErrorIs(t, err, assert.AnError)
}
