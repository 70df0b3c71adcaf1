// ABOUTME: OpenAI-backed embedder using the embeddings endpoint.
// ABOUTME: One request per call with SDK retries disabled; optional token-limit guard.
package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	// DefaultModel is the OpenAI embedding model used for notes.
	DefaultModel = "text-embedding-3-small"
	// DefaultDimension is the vector dimension requested from the model.
	DefaultDimension = 1536
	// MaxInputTokens is the input limit of the OpenAI embedding models.
	MaxInputTokens = 8191
)

// OpenAIEmbedder converts text to vectors with the OpenAI API.
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	dimension int
	counter   TokenCounter
}

type openAIOptions struct {
	model     string
	dimension int
	baseURL   string
	counter   TokenCounter
}

// OpenAIOption configures an OpenAIEmbedder.
type OpenAIOption func(*openAIOptions)

// WithModel overrides the embedding model.
func WithModel(model string) OpenAIOption {
	return func(o *openAIOptions) {
		o.model = model
	}
}

// WithDimension overrides the requested vector dimension.
func WithDimension(dimension int) OpenAIOption {
	return func(o *openAIOptions) {
		o.dimension = dimension
	}
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(baseURL string) OpenAIOption {
	return func(o *openAIOptions) {
		o.baseURL = baseURL
	}
}

// WithTokenCounter enables rejecting inputs over MaxInputTokens before the request.
func WithTokenCounter(counter TokenCounter) OpenAIOption {
	return func(o *openAIOptions) {
		o.counter = counter
	}
}

// NewOpenAIEmbedder creates an embedder for the given API key.
func NewOpenAIEmbedder(apiKey string, opts ...OpenAIOption) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	options := openAIOptions{
		model:     DefaultModel,
		dimension: DefaultDimension,
	}
	for _, opt := range opts {
		opt(&options)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if options.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(options.baseURL))
	}

	return &OpenAIEmbedder{
		client:    openai.NewClient(reqOpts...),
		model:     options.model,
		dimension: options.dimension,
		counter:   options.counter,
	}, nil
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.counter != nil {
		if n := e.counter.CountTokens(text); n > MaxInputTokens {
			return nil, fmt.Errorf("%w: %d tokens (max %d)", ErrInputTooLong, n, MaxInputTokens)
		}
	}

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	}
	if e.dimension > 0 {
		params.Dimensions = openai.Int(int64(e.dimension))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings generated")
	}

	data := resp.Data[0].Embedding
	vector := make([]float32, len(data))
	for i, v := range data {
		vector[i] = float32(v)
	}

	return vector, nil
}

// ModelName returns the embedding model name.
func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// Dimension returns the vector dimension.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

var _ Embedder = (*OpenAIEmbedder)(nil)
