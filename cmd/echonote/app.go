// ABOUTME: Builds the embedder, transcriber, store, and note service from config.
// ABOUTME: Every command that touches notes goes through openNotes so credentials are checked first.
package main

import (
	"context"
	"fmt"

	"github.com/2389-research/echonote/internal/api"
	"github.com/2389-research/echonote/internal/config"
	"github.com/2389-research/echonote/internal/embeddings"
	"github.com/2389-research/echonote/internal/notes"
	"github.com/2389-research/echonote/internal/storage"
	"github.com/2389-research/echonote/internal/transcribe"
)

// noteBackend is the note service a command talks to plus how to release it.
type noteBackend struct {
	notes notes.Service
	repo  *notes.Repository // nil when talking to a server
	store storage.Store
}

func (b *noteBackend) Close() {
	if b.store != nil {
		_ = b.store.Close()
	}
}

// openNotes returns a remote client when --server is set, otherwise a local
// repository over the configured store with its collection ensured.
func openNotes(ctx context.Context, cfg *config.Config) (*noteBackend, error) {
	if serverURL != "" {
		globalLogger.Debug("using echonote server", "url", serverURL)
		return &noteBackend{notes: api.NewClient(serverURL)}, nil
	}

	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend(), err)
	}

	repo := notes.NewRepository(store, embedder, notes.WithLogger(globalLogger))
	if err := repo.EnsureCollection(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	return &noteBackend{notes: repo, repo: repo, store: store}, nil
}

func newEmbedder(ctx context.Context, cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.EmbeddingProvider() {
	case config.ProviderGemini:
		return embeddings.NewGeminiEmbedder(ctx, cfg.Gemini.APIKey, embeddings.DefaultDimension)
	case config.ProviderOpenAI:
		opts := []embeddings.OpenAIOption{embeddings.WithBaseURL(cfg.OpenAI.BaseURL)}
		if counter, err := embeddings.NewTiktokenCounter(); err == nil {
			opts = append(opts, embeddings.WithTokenCounter(counter))
		} else {
			globalLogger.Warn("token counting disabled", "error", err)
		}
		return embeddings.NewOpenAIEmbedder(cfg.OpenAI.APIKey, opts...)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider())
	}
}

func newTranscriber(cfg *config.Config, opts ...transcribe.Option) (*transcribe.OpenAITranscriber, error) {
	if !cfg.HasOpenAIKey() {
		return nil, fmt.Errorf("%w: run 'echonote setup' or set OPENAI_API_KEY", config.ErrMissingAPIKey)
	}
	opts = append([]transcribe.Option{transcribe.WithBaseURL(cfg.OpenAI.BaseURL)}, opts...)
	return transcribe.NewOpenAITranscriber(cfg.OpenAI.APIKey, opts...)
}

// memoryStoreWarning explains that notes saved by this process will not
// outlive it. Empty when a server or a persistent backend is in use.
func memoryStoreWarning(cfg *config.Config, server string) string {
	if server != "" || cfg.StoreBackend() != config.BackendMemory {
		return ""
	}
	return "notes are kept in memory and discarded when echonote exits; " +
		"set store.backend (e.g. ECHONOTE_STORE=sqlite) or pass --server to keep them"
}
