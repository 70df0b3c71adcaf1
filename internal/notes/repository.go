// ABOUTME: Note repository that turns text into stored vectors and back.
// ABOUTME: Implements add, semantic search, unranked listing, and collection setup.
package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/mo"

	"github.com/2389-research/echonote/internal/embeddings"
	"github.com/2389-research/echonote/internal/models"
	"github.com/2389-research/echonote/internal/storage"
)

const (
	// DefaultCollection is the collection every note lives in.
	DefaultCollection = "notes"
	// DefaultLimit caps both ranked and unranked results.
	DefaultLimit = 10
)

var (
	// ErrEmptyNote is returned when note text is blank.
	ErrEmptyNote = errors.New("note text is empty")
	// ErrDimensionMismatch aliases the store error so callers need one import.
	ErrDimensionMismatch = storage.ErrDimensionMismatch
)

// Service is the set of note operations every surface exposes.
// *Repository implements it locally; the HTTP API client implements it remotely.
type Service interface {
	Add(ctx context.Context, text string) (*models.Note, error)
	Search(ctx context.Context, query string) ([]*models.Note, error)
	Count(ctx context.Context) (int, error)
}

// Repository stores and retrieves notes through an embedder and a vector store.
type Repository struct {
	store      storage.Store
	embedder   embeddings.Embedder
	collection string
	dimension  int
	limit      int
	logger     *slog.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithCollection overrides the collection name.
func WithCollection(name string) Option {
	return func(r *Repository) {
		r.collection = name
	}
}

// WithLimit overrides the result cap.
func WithLimit(limit int) Option {
	return func(r *Repository) {
		if limit > 0 {
			r.limit = limit
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// NewRepository creates a repository. The vector dimension is the embedder's.
func NewRepository(store storage.Store, embedder embeddings.Embedder, opts ...Option) *Repository {
	r := &Repository{
		store:      store,
		embedder:   embedder,
		collection: DefaultCollection,
		dimension:  embedder.Dimension(),
		limit:      DefaultLimit,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Collection returns the collection name.
func (r *Repository) Collection() string {
	return r.collection
}

// Dimension returns the vector dimension enforced on every write.
func (r *Repository) Dimension() int {
	return r.dimension
}

// EnsureCollection creates the notes collection if it does not exist.
func (r *Repository) EnsureCollection(ctx context.Context) error {
	created, err := storage.EnsureCollection(ctx, r.store, r.collection, r.dimension, storage.DistanceCosine)
	if err != nil {
		return err
	}
	if created {
		r.logger.Info("created collection", "collection", r.collection, "dimension", r.dimension)
	}
	return nil
}

// Add embeds text and stores it as a new note. The text is stored exactly as
// given; only blank text is rejected.
func (r *Repository) Add(ctx context.Context, text string) (*models.Note, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyNote
	}

	note := models.NewNote(text)

	vec, err := r.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	note.Vector = vec

	err = r.store.Upsert(ctx, r.collection, storage.Point{
		ID:      note.ID,
		Vector:  vec,
		Payload: note.Payload(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store note: %w", err)
	}

	r.logger.Debug("note added", "id", note.ID, "chars", len(text))
	return note, nil
}

// Search ranks notes by similarity to query. A blank query lists notes
// in store order instead, and those notes carry no score.
func (r *Repository) Search(ctx context.Context, query string) ([]*models.Note, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.List(ctx)
	}

	vec, err := r.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := r.store.Search(ctx, r.collection, vec, r.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}

	out := make([]*models.Note, 0, len(results))
	for _, res := range results {
		note, err := models.NoteFromPayload(res.ID, res.Payload)
		if err != nil {
			return nil, err
		}
		note.Vector = res.Vector
		note.Score = mo.Some(res.Score)
		out = append(out, note)
	}
	return out, nil
}

// List returns up to the result cap of notes without scores.
func (r *Repository) List(ctx context.Context) ([]*models.Note, error) {
	points, err := r.store.Scroll(ctx, r.collection, r.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	out := make([]*models.Note, 0, len(points))
	for _, p := range points {
		note, err := models.NoteFromPayload(p.ID, p.Payload)
		if err != nil {
			return nil, err
		}
		note.Vector = p.Vector
		out = append(out, note)
	}
	return out, nil
}

// Count returns the number of stored notes.
func (r *Repository) Count(ctx context.Context) (int, error) {
	n, err := r.store.Count(ctx, r.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return n, nil
}

func (r *Repository) embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %w", err)
	}
	if len(vec) != r.dimension {
		return nil, fmt.Errorf("%w: embedder returned %d values, collection expects %d",
			ErrDimensionMismatch, len(vec), r.dimension)
	}
	return vec, nil
}

var _ Service = (*Repository)(nil)
