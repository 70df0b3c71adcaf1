// ABOUTME: Token counting for embedding inputs using tiktoken.
// ABOUTME: Lets the OpenAI embedder reject over-long notes before a request is sent.
package embeddings

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenCounter counts tokens with the cl100k_base encoding used by OpenAI embedding models.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the cl100k_base encoding.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}

	return &TiktokenCounter{
		encoding: encoding,
	}, nil
}

// CountTokens returns the number of tokens in text.
func (tc *TiktokenCounter) CountTokens(text string) int {
	if tc.encoding == nil {
		return 0
	}
	return len(tc.encoding.Encode(text, nil, nil))
}
