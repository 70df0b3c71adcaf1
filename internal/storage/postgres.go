// ABOUTME: PostgreSQL vector store backed by the pgvector extension.
// ABOUTME: Each collection is a table with a vector(N) column searched by cosine distance.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresStore stores collections as pgvector tables.
type PostgresStore struct {
	pool *pgxpool.Pool

	mu   sync.Mutex
	dims map[string]int
}

// NewPostgresStore connects to dsn and makes sure the vector extension is installed.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to enable pgvector: %w", err)
	}

	return &PostgresStore{pool: pool, dims: make(map[string]int)}, nil
}

// CollectionExists reports whether the collection table exists.
func (s *PostgresStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	_, err := s.dimension(ctx, name)
	if errors.Is(err, ErrCollectionNotFound) {
		return false, nil
	}
	return err == nil, err
}

// CreateCollection creates the collection table with a vector column of the given dimension.
func (s *PostgresStore) CreateCollection(ctx context.Context, name string, dimension int, distance Distance) error {
	if err := checkDistance(distance); err != nil {
		return err
	}
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}

	table := pgx.Identifier{name}.Sanitize()
	sql := fmt.Sprintf(`CREATE TABLE %s (
		seq        BIGSERIAL,
		id         UUID PRIMARY KEY,
		embedding  vector(%d) NOT NULL,
		payload    JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, table, dimension)

	if _, err := s.pool.Exec(ctx, sql); err != nil {
		if isDuplicateTable(err) {
			return fmt.Errorf("%w: %q", ErrCollectionExists, name)
		}
		return fmt.Errorf("failed to create collection: %w", err)
	}

	s.mu.Lock()
	s.dims[name] = dimension
	s.mu.Unlock()
	return nil
}

// Count returns the number of rows in the collection table.
func (s *PostgresStore) Count(ctx context.Context, name string) (int, error) {
	if _, err := s.dimension(ctx, name); err != nil {
		return 0, err
	}
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, pgx.Identifier{name}.Sanitize())
	if err := s.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return n, nil
}

// Upsert inserts a point or replaces the row with the same id.
func (s *PostgresStore) Upsert(ctx context.Context, name string, point Point) error {
	dim, err := s.dimension(ctx, name)
	if err != nil {
		return err
	}
	if err := checkDimension(dim, point.Vector); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, embedding, payload) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			payload = EXCLUDED.payload`, pgx.Identifier{name}.Sanitize())

	payload := point.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	if _, err := s.pool.Exec(ctx, query, point.ID.String(), pgvector.NewVector(point.Vector), payload); err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

// Scroll returns points without their vectors.
func (s *PostgresStore) Scroll(ctx context.Context, name string, limit int) ([]Point, error) {
	if _, err := s.dimension(ctx, name); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id::text, payload FROM %s ORDER BY seq LIMIT $1`,
		pgx.Identifier{name}.Sanitize())
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to scroll points: %w", err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var (
			rawID   string
			payload map[string]any
		)
		if err := rows.Scan(&rawID, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("invalid point id %q: %w", rawID, err)
		}
		points = append(points, Point{ID: id, Payload: payload})
	}
	return points, rows.Err()
}

// Search orders rows by cosine distance and reports 1 - distance as the score.
func (s *PostgresStore) Search(ctx context.Context, name string, vector []float32, limit int) ([]ScoredPoint, error) {
	dim, err := s.dimension(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := checkDimension(dim, vector); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id::text, payload, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1, seq
		LIMIT $2`, pgx.Identifier{name}.Sanitize())

	rows, err := s.pool.Query(ctx, query, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}
	defer rows.Close()

	var results []ScoredPoint
	for rows.Next() {
		var (
			rawID   string
			payload map[string]any
			score   float64
		)
		if err := rows.Scan(&rawID, &payload, &score); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("invalid point id %q: %w", rawID, err)
		}
		results = append(results, ScoredPoint{
			Point: Point{ID: id, Payload: payload},
			Score: score,
		})
	}
	return results, rows.Err()
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// dimension returns the declared vector size of the collection's table.
func (s *PostgresStore) dimension(ctx context.Context, name string) (int, error) {
	s.mu.Lock()
	dim, ok := s.dims[name]
	s.mu.Unlock()
	if ok {
		return dim, nil
	}

	// pgvector stores the dimension as the column's type modifier
	var typmod *int32
	err := s.pool.QueryRow(ctx, `
		SELECT a.atttypmod
		FROM pg_attribute a
		WHERE a.attrelid = to_regclass($1) AND a.attname = 'embedding'`,
		pgx.Identifier{name}.Sanitize()).Scan(&typmod)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && typmod == nil) {
		return 0, fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read collection: %w", err)
	}

	dim = int(*typmod)
	s.mu.Lock()
	s.dims[name] = dim
	s.mu.Unlock()
	return dim, nil
}

func isDuplicateTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P07"
}

var _ Store = (*PostgresStore)(nil)
