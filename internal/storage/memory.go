// ABOUTME: In-process vector store that lives for the lifetime of the program.
// ABOUTME: Keeps points in insertion order and ranks searches by cosine similarity.
package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type memoryCollection struct {
	dimension int
	distance  Distance
	order     []uuid.UUID
	points    map[uuid.UUID]Point
}

// MemoryStore is a Store held entirely in memory. Data is lost on Close.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

// CollectionExists reports whether the collection has been created.
func (s *MemoryStore) CollectionExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

// CreateCollection registers an empty collection.
func (s *MemoryStore) CreateCollection(_ context.Context, name string, dimension int, distance Distance) error {
	if err := checkDistance(distance); err != nil {
		return err
	}
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return fmt.Errorf("%w: %q", ErrCollectionExists, name)
	}
	s.collections[name] = &memoryCollection{
		dimension: dimension,
		distance:  distance,
		points:    make(map[uuid.UUID]Point),
	}
	return nil
}

// Count returns the number of points in the collection.
func (s *MemoryStore) Count(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.collection(name)
	if err != nil {
		return 0, err
	}
	return len(c.points), nil
}

// Upsert inserts or replaces a point, keeping its original position on replace.
func (s *MemoryStore) Upsert(_ context.Context, name string, point Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.collection(name)
	if err != nil {
		return err
	}
	if err := checkDimension(c.dimension, point.Vector); err != nil {
		return err
	}

	if _, ok := c.points[point.ID]; !ok {
		c.order = append(c.order, point.ID)
	}
	c.points[point.ID] = clonePoint(point)
	return nil
}

// Scroll returns up to limit points in insertion order.
func (s *MemoryStore) Scroll(_ context.Context, name string, limit int) ([]Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}

	n := len(c.order)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]Point, 0, n)
	for _, id := range c.order[:n] {
		out = append(out, clonePoint(c.points[id]))
	}
	return out, nil
}

// Search ranks points by cosine similarity to vector.
func (s *MemoryStore) Search(_ context.Context, name string, vector []float32, limit int) ([]ScoredPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	if err := checkDimension(c.dimension, vector); err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(c.order))
	for _, id := range c.order {
		points = append(points, clonePoint(c.points[id]))
	}
	return rankByCosine(points, vector, limit), nil
}

// Close drops all collections.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = make(map[string]*memoryCollection)
	return nil
}

// collection must be called with s.mu held.
func (s *MemoryStore) collection(name string) (*memoryCollection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
	}
	return c, nil
}

func clonePoint(p Point) Point {
	return Point{
		ID:      p.ID,
		Vector:  slices.Clone(p.Vector),
		Payload: maps.Clone(p.Payload),
	}
}

var _ Store = (*MemoryStore)(nil)
