// ABOUTME: HTTP client for a running echonote API server.
// ABOUTME: Implements the note service remotely so CLI commands can share a server's store.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2389-research/echonote/internal/models"
	"github.com/2389-research/echonote/internal/notes"
)

// Client talks to the /api/v1 endpoints of an echonote server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the server at baseURL, e.g. http://localhost:8080.
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/api/v1")
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Add saves a note on the server.
func (c *Client) Add(ctx context.Context, text string) (*models.Note, error) {
	if strings.TrimSpace(text) == "" {
		return nil, notes.ErrEmptyNote
	}

	body, err := json.Marshal(AddNoteRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal note: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/notes", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp NoteResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return fromResponse(resp), nil
}

// Search ranks notes by query on the server, or lists them when query is blank.
func (c *Client) Search(ctx context.Context, query string) ([]*models.Note, error) {
	u := c.baseURL + "/api/v1/notes"
	if q := strings.TrimSpace(query); q != "" {
		u += "?" + url.Values{"q": {q}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var resp ListNotesResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	out := make([]*models.Note, 0, len(resp.Notes))
	for _, n := range resp.Notes {
		out = append(out, fromResponse(n))
	}
	return out, nil
}

// Count returns the number of notes stored on the server.
func (c *Client) Count(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v1/notes/count", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	var resp CountResponse
	if err := c.do(req, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("echonote server request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return fmt.Errorf("echonote server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

var _ notes.Service = (*Client)(nil)
