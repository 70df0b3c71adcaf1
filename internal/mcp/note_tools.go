// ABOUTME: MCP tool implementations for note operations.
// ABOUTME: Registers add_note, search_notes, transcribe_audio, and note_count.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/echonote/internal/models"
	"github.com/2389-research/echonote/internal/notes"
	"github.com/2389-research/echonote/internal/transcribe"
)

func (s *Server) registerNoteTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "add_note",
		Description: "Save a short text note. The note is embedded so it can be found later by meaning, not just by keywords.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"text": {"type": "string", "description": "The note text", "minLength": 1}
			},
			"required": ["text"]
		}`),
	}, s.handleAddNote)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "search_notes",
		Description: "Find notes by semantic similarity to a query. Returns at most 10 notes, best match first. Omit the query to list stored notes without ranking.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "What to look for (optional)"}
			}
		}`),
	}, s.handleSearchNotes)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "transcribe_audio",
		Description: "Transcribe an audio file (mp3, wav, m4a, ogg, webm, flac) to text, optionally saving the transcript as a note.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {"type": "string", "description": "Path to the audio file"},
				"save": {"type": "boolean", "description": "Save the transcript as a note (default: false)"}
			},
			"required": ["path"]
		}`),
	}, s.handleTranscribeAudio)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "note_count",
		Description: "Report how many notes are stored.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleNoteCount)
}

func (s *Server) handleAddNote(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	note, err := s.notes.Add(ctx, args.Text)
	if errors.Is(err, notes.ErrEmptyNote) {
		return toolError("text is required"), nil
	}
	if err != nil {
		return toolError("failed to save note: %v", err), nil
	}

	return textResult(fmt.Sprintf("Note saved.\nID: %s", note.ID)), nil
}

func (s *Server) handleSearchNotes(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Query string `json:"query"`
	}
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return toolError("invalid arguments: %v", err), nil
		}
	}

	results, err := s.notes.Search(ctx, args.Query)
	if err != nil {
		return toolError("failed to search notes: %v", err), nil
	}

	if len(results) == 0 {
		return textResult("No notes found."), nil
	}

	return textResult(formatNotes(results)), nil
}

func (s *Server) handleTranscribeAudio(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Path string `json:"path"`
		Save bool   `json:"save"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	if args.Path == "" {
		return toolError("path is required"), nil
	}
	if s.transcriber == nil {
		return toolError("transcription is not configured"), nil
	}

	text, err := transcribe.File(ctx, s.transcriber, args.Path)
	if err != nil {
		return toolError("failed to transcribe: %v", err), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Transcript:\n%s\n", text))

	if args.Save {
		note, err := s.notes.Add(ctx, text)
		switch {
		case errors.Is(err, notes.ErrEmptyNote):
			sb.WriteString("\nNot saved: transcript is empty.")
		case err != nil:
			return toolError("transcribed but failed to save: %v", err), nil
		default:
			sb.WriteString(fmt.Sprintf("\nSaved as note %s", note.ID))
		}
	}

	return textResult(sb.String()), nil
}

func (s *Server) handleNoteCount(ctx context.Context, _ *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	n, err := s.notes.Count(ctx)
	if err != nil {
		return toolError("failed to count notes: %v", err), nil
	}
	return textResult(fmt.Sprintf("%d notes stored.", n)), nil
}

// formatNotes renders one note per block, with its score when ranked.
func formatNotes(results []*models.Note) string {
	var sb strings.Builder
	for i, note := range results {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		sb.WriteString(fmt.Sprintf("Note: %s\n", note.ID))
		if !note.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("Date: %s\n", note.CreatedAt.Format("2006-01-02 15:04:05")))
		}
		if note.Score.IsPresent() {
			sb.WriteString(fmt.Sprintf("Score: %s\n", models.FormatScore(note.Score)))
		}
		sb.WriteString(note.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

func textResult(text string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: text}},
	}
}

// toolError creates an error result for MCP tool responses.
func toolError(format string, args ...interface{}) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
