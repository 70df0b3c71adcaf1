// ABOUTME: Embedding interface and shared errors for note embeddings.
// ABOUTME: Implementations call a remote model; nothing is computed locally.
package embeddings

import (
	"context"
	"errors"
)

// ErrInputTooLong is returned when text exceeds the model's input token limit.
var ErrInputTooLong = errors.New("input exceeds embedding model token limit")

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Embed returns a vector embedding for the given text.
	// Each call is exactly one remote request; nothing is cached or retried.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the dimensionality of the output vectors.
	Dimension() int
}

// TokenCounter counts model tokens in a text.
type TokenCounter interface {
	CountTokens(text string) int
}
