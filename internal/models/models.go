// ABOUTME: Core data model for notes stored in the vector collection.
// ABOUTME: Provides the Note type, its constructor, and payload conversion helpers.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Payload keys written alongside every point.
const (
	PayloadText      = "text"
	PayloadCreatedAt = "created_at"
)

// Note is a single user note and its embedding.
type Note struct {
	ID        uuid.UUID          `json:"id"`
	Text      string             `json:"text"`
	CreatedAt time.Time          `json:"created_at"`
	Vector    []float32          `json:"-"`
	Score     mo.Option[float64] `json:"score"` // Some on ranked search results, None on listings
}

// NewNote creates a note with a generated UUID and timestamp.
func NewNote(text string) *Note {
	return &Note{
		ID:        uuid.New(),
		Text:      text,
		CreatedAt: time.Now().UTC(),
		Score:     mo.None[float64](),
	}
}

// Payload returns the opaque mapping stored with the note's point.
func (n *Note) Payload() map[string]any {
	return map[string]any{
		PayloadText:      n.Text,
		PayloadCreatedAt: n.CreatedAt.Format(time.RFC3339Nano),
	}
}

// NoteFromPayload rebuilds a note from a stored point's id and payload.
func NoteFromPayload(id uuid.UUID, payload map[string]any) (*Note, error) {
	text, ok := payload[PayloadText].(string)
	if !ok {
		return nil, fmt.Errorf("point %s has no text payload", id)
	}

	note := &Note{
		ID:    id,
		Text:  text,
		Score: mo.None[float64](),
	}

	if raw, ok := payload[PayloadCreatedAt].(string); ok && raw != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			note.CreatedAt = ts
		}
	}

	return note, nil
}

// FormatScore renders a note's score, or "-" when the note is unranked.
func FormatScore(score mo.Option[float64]) string {
	if value, ok := score.Get(); ok {
		return fmt.Sprintf("%.4f", value)
	}
	return "-"
}
