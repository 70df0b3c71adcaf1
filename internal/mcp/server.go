// ABOUTME: MCP server initialization and configuration for echonote.
// ABOUTME: Sets up server with note and transcription tools for AI agent access.
package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/echonote/internal/notes"
	"github.com/2389-research/echonote/internal/transcribe"
)

// Server wraps the MCP server with the note service.
type Server struct {
	mcp         *gomcp.Server
	notes       notes.Service
	transcriber transcribe.Transcriber
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

// WithTranscriber enables the transcribe_audio tool.
func WithTranscriber(t transcribe.Transcriber) ServerOption {
	return func(s *Server) {
		s.transcriber = t
	}
}

// NewServer creates an MCP server with note capabilities.
func NewServer(svc notes.Service, version string, opts ...ServerOption) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("note service is required")
	}

	mcpServer := gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "echonote",
			Version: version,
		},
		nil,
	)

	s := &Server{
		mcp:   mcpServer,
		notes: svc,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registerNoteTools()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}
