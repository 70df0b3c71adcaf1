// ABOUTME: Gin handlers for note and transcription endpoints.
// ABOUTME: Delegates to the note service and maps domain errors onto status codes.
package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/2389-research/echonote/internal/notes"
	"github.com/2389-research/echonote/internal/transcribe"
)

// maxAudioBytes matches the upstream transcription upload limit.
const maxAudioBytes = 25 << 20

// NoteController handles HTTP requests for notes.
type NoteController struct {
	notes       notes.Service
	transcriber transcribe.Transcriber
	logger      *slog.Logger
}

// NewNoteController creates a controller. A nil transcriber disables transcription.
func NewNoteController(svc notes.Service, transcriber transcribe.Transcriber, logger *slog.Logger) *NoteController {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteController{notes: svc, transcriber: transcriber, logger: logger}
}

// AddNote handles POST /api/v1/notes.
func (c *NoteController) AddNote(ctx *gin.Context) {
	var req AddNoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	note, err := c.notes.Add(ctx.Request.Context(), req.Text)
	if errors.Is(err, notes.ErrEmptyNote) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.logger.Error("add note failed", "error", err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "failed to save note"})
		return
	}

	ctx.JSON(http.StatusCreated, toResponse(note))
}

// ListNotes handles GET /api/v1/notes, ranking by ?q= when present.
func (c *NoteController) ListNotes(ctx *gin.Context) {
	results, err := c.notes.Search(ctx.Request.Context(), ctx.Query("q"))
	if err != nil {
		c.logger.Error("search notes failed", "error", err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "failed to search notes"})
		return
	}

	resp := ListNotesResponse{Count: len(results), Notes: make([]NoteResponse, 0, len(results))}
	for _, n := range results {
		resp.Notes = append(resp.Notes, toResponse(n))
	}
	ctx.JSON(http.StatusOK, resp)
}

// CountNotes handles GET /api/v1/notes/count.
func (c *NoteController) CountNotes(ctx *gin.Context) {
	n, err := c.notes.Count(ctx.Request.Context())
	if err != nil {
		c.logger.Error("count notes failed", "error", err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "failed to count notes"})
		return
	}
	ctx.JSON(http.StatusOK, CountResponse{Count: n})
}

// Transcribe handles POST /api/v1/transcriptions with a multipart "audio" file.
// The form field save=true also stores a non-empty transcript as a note.
func (c *NoteController) Transcribe(ctx *gin.Context) {
	if c.transcriber == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "transcription is not configured"})
		return
	}

	header, err := ctx.FormFile("audio")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing audio file"})
		return
	}
	if !transcribe.IsAudioFile(header.Filename) {
		ctx.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported audio format"})
		return
	}
	if header.Size > maxAudioBytes {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio file too large"})
		return
	}

	file, err := header.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unreadable audio file"})
		return
	}
	defer func() { _ = file.Close() }()

	audio, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unreadable audio file"})
		return
	}

	reqCtx := ctx.Request.Context()
	text, err := transcribe.Named(reqCtx, c.transcriber, header.Filename, audio)
	if err != nil {
		c.logger.Error("transcription failed", "file", header.Filename, "error", err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "failed to transcribe audio"})
		return
	}

	resp := TranscriptionResponse{Text: text}
	if save, _ := strconv.ParseBool(ctx.PostForm("save")); save {
		note, err := c.notes.Add(reqCtx, text)
		switch {
		case errors.Is(err, notes.ErrEmptyNote):
			// nothing to save
		case err != nil:
			c.logger.Error("save transcript failed", "error", err)
			ctx.JSON(http.StatusBadGateway, gin.H{"error": "transcribed but failed to save note", "text": text})
			return
		default:
			resp.NoteID = &note.ID
		}
	}

	ctx.JSON(http.StatusOK, resp)
}
