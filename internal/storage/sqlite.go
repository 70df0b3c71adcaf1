// ABOUTME: SQLite-backed vector store using the pure-Go modernc driver.
// ABOUTME: Stores vectors as BLOBs and payloads as JSON, ranking searches in process.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS collections (
	name      TEXT PRIMARY KEY,
	dimension INTEGER NOT NULL,
	distance  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS points (
	collection TEXT NOT NULL REFERENCES collections(name),
	id         TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	payload    TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);`

// SQLiteStore persists collections in a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
// The path ":memory:" gives a private in-memory database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// CollectionExists reports whether a collections row exists for name.
func (s *SQLiteStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	_, err := s.dimension(ctx, name)
	if errors.Is(err, ErrCollectionNotFound) {
		return false, nil
	}
	return err == nil, err
}

// CreateCollection records the collection and its dimension.
func (s *SQLiteStore) CreateCollection(ctx context.Context, name string, dimension int, distance Distance) error {
	if err := checkDistance(distance); err != nil {
		return err
	}
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (name, dimension, distance) VALUES (?, ?, ?)`,
		name, dimension, string(distance))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %q", ErrCollectionExists, name)
		}
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// Count returns the number of stored points.
func (s *SQLiteStore) Count(ctx context.Context, name string) (int, error) {
	if _, err := s.dimension(ctx, name); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM points WHERE collection = ?`, name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return n, nil
}

// Upsert writes a point, replacing any point with the same id.
func (s *SQLiteStore) Upsert(ctx context.Context, name string, point Point) error {
	dim, err := s.dimension(ctx, name)
	if err != nil {
		return err
	}
	if err := checkDimension(dim, point.Vector); err != nil {
		return err
	}

	payload, err := json.Marshal(point.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO points (collection, id, embedding, payload) VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			embedding = excluded.embedding,
			payload = excluded.payload`,
		name, point.ID.String(), EncodeVector(point.Vector), string(payload))
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

// Scroll returns up to limit points in insertion order.
func (s *SQLiteStore) Scroll(ctx context.Context, name string, limit int) ([]Point, error) {
	if _, err := s.dimension(ctx, name); err != nil {
		return nil, err
	}
	return s.loadPoints(ctx, name, limit)
}

// Search loads the collection and ranks it by cosine similarity in memory.
func (s *SQLiteStore) Search(ctx context.Context, name string, vector []float32, limit int) ([]ScoredPoint, error) {
	dim, err := s.dimension(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := checkDimension(dim, vector); err != nil {
		return nil, err
	}

	points, err := s.loadPoints(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	return rankByCosine(points, vector, limit), nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) dimension(ctx context.Context, name string) (int, error) {
	var dim int
	err := s.db.QueryRowContext(ctx,
		`SELECT dimension FROM collections WHERE name = ?`, name).Scan(&dim)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read collection: %w", err)
	}
	return dim, nil
}

// loadPoints reads points in insertion order; limit <= 0 reads all of them.
func (s *SQLiteStore) loadPoints(ctx context.Context, name string, limit int) ([]Point, error) {
	query := `SELECT id, embedding, payload FROM points WHERE collection = ? ORDER BY rowid`
	args := []any{name}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var points []Point
	for rows.Next() {
		var (
			rawID   string
			blob    []byte
			payload string
		)
		if err := rows.Scan(&rawID, &blob, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}

		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("invalid point id %q: %w", rawID, err)
		}
		vec, err := DecodeVector(blob)
		if err != nil {
			return nil, err
		}
		p := Point{ID: id, Vector: vec}
		if err := json.Unmarshal([]byte(payload), &p.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode payload of %s: %w", id, err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

var _ Store = (*SQLiteStore)(nil)
