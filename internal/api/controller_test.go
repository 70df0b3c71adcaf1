// ABOUTME: Tests for the gin router and note handlers.
// ABOUTME: Uses httptest recorders against an in-memory repository and fake clients.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389-research/echonote/internal/notes"
	"github.com/2389-research/echonote/internal/testutil"
	"github.com/2389-research/echonote/internal/transcribe"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, tr transcribe.Transcriber) (*gin.Engine, *notes.Repository) {
	t.Helper()
	repo := notes.NewRepository(testutil.NewRecordingStore(), testutil.NewGroceryEmbedder(16))
	require.NoError(t, repo.EnsureCollection(context.Background()))
	return NewRouter(NewNoteController(repo, tr, nil), "test"), repo
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func multipartAudio(t *testing.T, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("audio", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func postAudio(t *testing.T, h http.Handler, filename string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartAudio(t, filename, []byte("audio-bytes"), fields)
	req := httptest.NewRequest("POST", "/api/v1/transcriptions", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	rec := doJSON(t, router, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestAddNote(t *testing.T) {
	router, repo := newTestRouter(t, nil)

	rec := doJSON(t, router, "POST", "/api/v1/notes", AddNoteRequest{Text: "Buy milk"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp NoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Buy milk", resp.Text)
	assert.Nil(t, resp.Score)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAddNoteRejectsBlankText(t *testing.T) {
	router, repo := newTestRouter(t, nil)

	for _, body := range []any{AddNoteRequest{Text: ""}, AddNoteRequest{Text: "   "}, map[string]int{"text": 1}} {
		rec := doJSON(t, router, "POST", "/api/v1/notes", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListNotesRankedAndUnranked(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	doJSON(t, router, "POST", "/api/v1/notes", AddNoteRequest{Text: "Buy milk"})
	doJSON(t, router, "POST", "/api/v1/notes", AddNoteRequest{Text: "Buy bread"})

	rec := doJSON(t, router, "GET", "/api/v1/notes?q=dairy", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ranked ListNotesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ranked))
	require.Equal(t, 2, ranked.Count)
	assert.Equal(t, "Buy milk", ranked.Notes[0].Text)
	require.NotNil(t, ranked.Notes[0].Score)
	require.NotNil(t, ranked.Notes[1].Score)
	assert.Greater(t, *ranked.Notes[0].Score, *ranked.Notes[1].Score)

	rec = doJSON(t, router, "GET", "/api/v1/notes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"score":null`)
	var listed ListNotesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, "Buy milk", listed.Notes[0].Text, "listing keeps insertion order")
}

func TestListNotesEmpty(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	rec := doJSON(t, router, "GET", "/api/v1/notes?q=anything", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"notes":[]}`, rec.Body.String())
}

func TestCountNotes(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	doJSON(t, router, "POST", "/api/v1/notes", AddNoteRequest{Text: "one"})

	rec := doJSON(t, router, "GET", "/api/v1/notes/count", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":1}`, rec.Body.String())
}

func TestServiceErrorsMapToBadGateway(t *testing.T) {
	repo := notes.NewRepository(testutil.NewRecordingStore(), &testutil.StaticEmbedder{Dim: 4, Err: errors.New("quota exceeded")})
	require.NoError(t, repo.EnsureCollection(context.Background()))
	router := NewRouter(NewNoteController(repo, nil, nil), "test")

	rec := doJSON(t, router, "POST", "/api/v1/notes", AddNoteRequest{Text: "hello"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "quota", "upstream details stay in the logs")

	rec = doJSON(t, router, "GET", "/api/v1/notes?q=hello", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestTranscribe(t *testing.T) {
	tr := &testutil.FakeTranscriber{Text: "pick up the kids"}
	router, repo := newTestRouter(t, tr)

	rec := postAudio(t, router, "memo.m4a", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp TranscriptionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pick up the kids", resp.Text)
	assert.Nil(t, resp.NoteID)
	assert.Equal(t, []byte("audio-bytes"), tr.LastAudio())

	n, _ := repo.Count(context.Background())
	assert.Zero(t, n)
}

func TestTranscribeAndSave(t *testing.T) {
	router, repo := newTestRouter(t, &testutil.FakeTranscriber{Text: "pick up the kids"})

	rec := postAudio(t, router, "memo.mp3", map[string]string{"save": "true"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp TranscriptionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.NoteID)

	n, _ := repo.Count(context.Background())
	assert.Equal(t, 1, n)
}

func TestTranscribeErrors(t *testing.T) {
	tests := []struct {
		name     string
		tr       transcribe.Transcriber
		filename string
		want     int
	}{
		{"not configured", nil, "a.mp3", http.StatusServiceUnavailable},
		{"missing file", &testutil.FakeTranscriber{}, "", http.StatusBadRequest},
		{"unsupported format", &testutil.FakeTranscriber{}, "a.txt", http.StatusUnsupportedMediaType},
		{"upstream failure", &testutil.FakeTranscriber{Err: errors.New("invalid file")}, "a.wav", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, tt.tr)
			rec := postAudio(t, router, tt.filename, nil)
			assert.Equal(t, tt.want, rec.Code)
			assert.True(t, strings.Contains(rec.Body.String(), `"error"`))
		})
	}
}
