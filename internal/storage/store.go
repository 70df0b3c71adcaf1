// ABOUTME: Interface definition for vector point storage.
// ABOUTME: Defines collections, points, ranked results, and idempotent collection setup.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/2389-research/echonote/internal/embeddings"
)

var (
	// ErrCollectionNotFound is returned when an operation targets a missing collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrCollectionExists is returned by CreateCollection when the name is taken.
	ErrCollectionExists = errors.New("collection already exists")
	// ErrDimensionMismatch is returned when a vector's length differs from the collection's.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrUnsupportedDistance is returned for distance metrics a backend cannot rank by.
	ErrUnsupportedDistance = errors.New("unsupported distance metric")
)

// Distance names the similarity metric of a collection.
type Distance string

// DistanceCosine ranks by cosine similarity, higher is closer.
const DistanceCosine Distance = "cosine"

// Point is a stored vector with its id and opaque payload.
type Point struct {
	ID      uuid.UUID
	Vector  []float32
	Payload map[string]any
}

// ScoredPoint is a point returned by a similarity search.
type ScoredPoint struct {
	Point
	Score float64
}

// Store defines operations for vector collection persistence.
type Store interface {
	// CollectionExists reports whether the named collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// CreateCollection creates a collection. Callers check existence first.
	CreateCollection(ctx context.Context, name string, dimension int, distance Distance) error

	// Count returns the number of points in the collection.
	Count(ctx context.Context, name string) (int, error)

	// Upsert inserts the point, overwriting any point with the same id.
	Upsert(ctx context.Context, name string, point Point) error

	// Scroll lists up to limit points in store order, without scores.
	// Backends may omit vectors from the returned points.
	Scroll(ctx context.Context, name string, limit int) ([]Point, error)

	// Search returns up to limit points in descending similarity to vector.
	Search(ctx context.Context, name string, vector []float32, limit int) ([]ScoredPoint, error)

	// Close releases any resources held by the store.
	Close() error
}

// EnsureCollection creates the collection when it does not exist yet.
// It reports whether a collection was created and is safe to call repeatedly.
func EnsureCollection(ctx context.Context, s Store, name string, dimension int, distance Distance) (bool, error) {
	exists, err := s.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to check collection %q: %w", name, err)
	}
	if exists {
		return false, nil
	}

	if err := s.CreateCollection(ctx, name, dimension, distance); err != nil {
		// lost a race with another creator
		if errors.Is(err, ErrCollectionExists) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create collection %q: %w", name, err)
	}
	return true, nil
}

func checkDistance(distance Distance) error {
	if distance != DistanceCosine {
		return fmt.Errorf("%w: %q", ErrUnsupportedDistance, distance)
	}
	return nil
}

func checkDimension(want int, vector []float32) error {
	if len(vector) != want {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, want, len(vector))
	}
	return nil
}

// rankByCosine scores points against query and returns the best limit of them.
// Ties keep the input order.
func rankByCosine(points []Point, query []float32, limit int) []ScoredPoint {
	scored := make([]ScoredPoint, 0, len(points))
	for _, p := range points {
		scored = append(scored, ScoredPoint{
			Point: p,
			Score: embeddings.CosineSimilarity(query, p.Vector),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
