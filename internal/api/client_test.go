// ABOUTME: Tests for the HTTP API client against a live router.
// ABOUTME: Verifies the client round-trips notes, scores, and server errors.
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389-research/echonote/internal/notes"
)

func newClientFixture(t *testing.T) (*Client, *notes.Repository) {
	t.Helper()
	router, repo := newTestRouter(t, nil)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return NewClient(server.URL + "/api/v1/"), repo
}

func TestClientAddSearchCount(t *testing.T) {
	ctx := context.Background()
	client, repo := newClientFixture(t)

	note, err := client.Add(ctx, "Buy milk")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", note.Text)
	assert.True(t, note.Score.IsAbsent())

	_, err = client.Add(ctx, "Buy bread")
	require.NoError(t, err)

	ranked, err := client.Search(ctx, "dairy")
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, note.ID, ranked[0].ID)
	assert.True(t, ranked[0].Score.IsPresent())

	listed, err := client.Search(ctx, "  ")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.True(t, listed[0].Score.IsAbsent())

	n, err := client.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	local, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, local)
}

func TestClientRejectsBlankLocally(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Add(context.Background(), "   ")
	assert.ErrorIs(t, err, notes.ErrEmptyNote)
	assert.Zero(t, hits)
}

func TestClientSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"failed to search notes"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Search(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "failed to search notes")
}

func TestClientUnreachable(t *testing.T) {
	_, err := NewClient("http://localhost:1").Count(context.Background())
	assert.Error(t, err)
}
