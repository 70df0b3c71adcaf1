// ABOUTME: Qdrant vector store over the official gRPC client.
// ABOUTME: Maps collections, UUID points, and payloads onto Qdrant's API.
package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig holds connection settings for a Qdrant server.
type QdrantConfig struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// QdrantStore stores collections in a Qdrant server.
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore connects to the Qdrant gRPC endpoint.
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}
	return &QdrantStore{client: client}, nil
}

// CollectionExists asks the server whether the collection exists.
func (s *QdrantStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("failed to check collection: %w", err)
	}
	return exists, nil
}

// CreateCollection creates a collection with a single unnamed vector.
func (s *QdrantStore) CreateCollection(ctx context.Context, name string, dimension int, distance Distance) error {
	if err := checkDistance(distance); err != nil {
		return err
	}
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// Count returns the exact point count.
func (s *QdrantStore) Count(ctx context.Context, name string) (int, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: name,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(n), nil
}

// Upsert writes one point and waits for it to be applied.
func (s *QdrantStore) Upsert(ctx context.Context, name string, point Point) error {
	payload, err := qdrant.TryValueMap(point.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(point.ID.String()),
			Vectors: qdrant.NewVectors(point.Vector...),
			Payload: payload,
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

// Scroll returns points without their vectors.
func (s *QdrantStore) Scroll(ctx context.Context, name string, limit int) ([]Point, error) {
	found, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: name,
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scroll points: %w", err)
	}

	points := make([]Point, 0, len(found))
	for _, p := range found {
		id, err := pointID(p.GetId())
		if err != nil {
			return nil, err
		}
		points = append(points, Point{ID: id, Payload: payloadFromQdrant(p.GetPayload())})
	}
	return points, nil
}

// Search queries the nearest points with their payloads.
func (s *QdrantStore) Search(ctx context.Context, name string, vector []float32, limit int) ([]ScoredPoint, error) {
	found, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]ScoredPoint, 0, len(found))
	for _, p := range found {
		id, err := pointID(p.GetId())
		if err != nil {
			return nil, err
		}
		results = append(results, ScoredPoint{
			Point: Point{ID: id, Payload: payloadFromQdrant(p.GetPayload())},
			Score: float64(p.GetScore()),
		})
	}
	return results, nil
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func pointID(id *qdrant.PointId) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id.GetUuid())
	if err != nil {
		return uuid.Nil, fmt.Errorf("unexpected point id %v: %w", id, err)
	}
	return parsed, nil
}

func payloadFromQdrant(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = valueFromQdrant(v)
	}
	return out
}

func valueFromQdrant(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_StructValue:
		return payloadFromQdrant(kind.StructValue.GetFields())
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, valueFromQdrant(item))
		}
		return out
	default:
		return nil
	}
}

var _ Store = (*QdrantStore)(nil)
