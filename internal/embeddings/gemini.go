// ABOUTME: Gemini-backed embedder for deployments that use Google's embedding API.
// ABOUTME: Requests the same output dimension as the OpenAI embedder so collections stay compatible.
package embeddings

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const (
	// DefaultGeminiModel is the Gemini embedding model used for notes.
	DefaultGeminiModel = "gemini-embedding-001"

	geminiTaskType = "SEMANTIC_SIMILARITY"
)

// GeminiEmbedder converts text to vectors with the Gemini API.
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	dimension int
}

// NewGeminiEmbedder creates a Gemini embedder producing vectors of the given dimension.
func NewGeminiEmbedder(ctx context.Context, apiKey string, dimension int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if dimension <= 0 {
		dimension = DefaultDimension
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiEmbedder{
		client:    client,
		model:     DefaultGeminiModel,
		dimension: dimension,
	}, nil
}

// Embed returns the embedding for a single text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := int32(e.dimension)
	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), &genai.EmbedContentConfig{
		TaskType:             geminiTaskType,
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("no embeddings generated")
	}

	return resp.Embeddings[0].Values, nil
}

// ModelName returns the embedding model name.
func (e *GeminiEmbedder) ModelName() string {
	return e.model
}

// Dimension returns the vector dimension.
func (e *GeminiEmbedder) Dimension() int {
	return e.dimension
}

var _ Embedder = (*GeminiEmbedder)(nil)
