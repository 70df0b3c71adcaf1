// ABOUTME: Request and response bodies for the HTTP API.
// ABOUTME: Scores are pointers so unranked notes serialize as null, never 0.
package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/2389-research/echonote/internal/models"
)

// AddNoteRequest is the body of POST /api/v1/notes.
type AddNoteRequest struct {
	Text string `json:"text" binding:"required"`
}

// NoteResponse is one note on the wire.
type NoteResponse struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Score     *float64  `json:"score"`
}

// ListNotesResponse is the body of GET /api/v1/notes.
type ListNotesResponse struct {
	Count int            `json:"count"`
	Notes []NoteResponse `json:"notes"`
}

// CountResponse is the body of GET /api/v1/notes/count.
type CountResponse struct {
	Count int `json:"count"`
}

// TranscriptionResponse is the body of POST /api/v1/transcriptions.
type TranscriptionResponse struct {
	Text   string     `json:"text"`
	NoteID *uuid.UUID `json:"note_id,omitempty"`
}

func toResponse(n *models.Note) NoteResponse {
	resp := NoteResponse{ID: n.ID, Text: n.Text, CreatedAt: n.CreatedAt}
	if score, ok := n.Score.Get(); ok {
		resp.Score = &score
	}
	return resp
}

func fromResponse(r NoteResponse) *models.Note {
	n := &models.Note{ID: r.ID, Text: r.Text, CreatedAt: r.CreatedAt, Score: mo.None[float64]()}
	if r.Score != nil {
		n.Score = mo.Some(*r.Score)
	}
	return n
}
