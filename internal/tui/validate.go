// ABOUTME: OpenAI credential validation for the setup wizard.
// ABOUTME: Tests the key by listing models, with retries disabled.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ValidateAPIKey checks the key against the models endpoint of baseURL.
// The context allows cancellation when the user quits during validation.
func ValidateAPIKey(ctx context.Context, baseURL, apiKey string) error {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(10 * time.Second),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}

	client := openai.NewClient(opts...)
	if _, err := client.Models.List(ctx); err != nil {
		return fmt.Errorf("API key check failed: %w", err)
	}
	return nil
}
