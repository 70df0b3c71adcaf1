// ABOUTME: Deterministic fakes for the embedding, transcription, and storage seams.
// ABOUTME: Shared by package tests so no test ever calls a remote API.
package testutil

import (
	"context"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/2389-research/echonote/internal/storage"
)

// HashEmbedder produces deterministic embeddings: same text, same vector.
type HashEmbedder struct {
	Dim int
}

func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.Dim)
	for i := range vec {
		h := 0
		for j, c := range text {
			h += int(c) * (i + 1) * (j + 1)
		}
		vec[i] = float32(h%1000) / 1000.0
	}
	normalize(vec)
	return vec, nil
}

func (e *HashEmbedder) Dimension() int {
	return e.Dim
}

// KeywordEmbedder maps known words onto fixed axes so related texts point
// the same way. Axis Dim-1 carries a small constant so no vector is zero.
type KeywordEmbedder struct {
	Dim  int
	Axes map[string]int

	mu    sync.Mutex
	calls []string
}

// NewGroceryEmbedder puts dairy words on one axis and bakery words on another.
func NewGroceryEmbedder(dim int) *KeywordEmbedder {
	return &KeywordEmbedder{
		Dim: dim,
		Axes: map[string]int{
			"milk": 0, "dairy": 0, "cheese": 0, "butter": 0, "yogurt": 0,
			"bread": 1, "bakery": 1, "toast": 1, "bagel": 1,
			"buy": 2, "shopping": 2,
		},
	}
}

func (e *KeywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls = append(e.calls, text)
	e.mu.Unlock()

	vec := make([]float32, e.Dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if axis, ok := e.Axes[w]; ok && axis < e.Dim {
			vec[axis]++
		}
	}
	vec[e.Dim-1] += 0.01
	normalize(vec)
	return vec, nil
}

func (e *KeywordEmbedder) Dimension() int {
	return e.Dim
}

// Calls returns the texts embedded so far.
func (e *KeywordEmbedder) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// StaticEmbedder returns Vector (or Err) for every input.
// Vector may deliberately disagree with Dim.
type StaticEmbedder struct {
	Vector []float32
	Dim    int
	Err    error
}

func (e *StaticEmbedder) Embed(context.Context, string) ([]float32, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	return append([]float32(nil), e.Vector...), nil
}

func (e *StaticEmbedder) Dimension() int {
	return e.Dim
}

// FakeTranscriber returns Text (or Err) and records the audio it was given.
type FakeTranscriber struct {
	Text string
	Err  error

	mu        sync.Mutex
	calls     int
	lastAudio []byte
}

func (f *FakeTranscriber) Transcribe(_ context.Context, audio []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastAudio = append([]byte(nil), audio...)
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}

// Calls returns how many times Transcribe ran.
func (f *FakeTranscriber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastAudio returns the audio passed to the latest call.
func (f *FakeTranscriber) LastAudio() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAudio
}

// RecordingStore wraps a Store and counts upserts.
type RecordingStore struct {
	storage.Store

	mu      sync.Mutex
	upserts int
}

// NewRecordingStore wraps an in-memory store.
func NewRecordingStore() *RecordingStore {
	return &RecordingStore{Store: storage.NewMemoryStore()}
}

func (s *RecordingStore) Upsert(ctx context.Context, name string, point storage.Point) error {
	s.mu.Lock()
	s.upserts++
	s.mu.Unlock()
	return s.Store.Upsert(ctx, name, point)
}

// Upserts returns how many upserts reached the store.
func (s *RecordingStore) Upserts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}

func normalize(vec []float32) {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}
