// ABOUTME: Tests for CLI note rendering helpers.
// ABOUTME: Checks score columns and text truncation in search output.
package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/samber/mo"

	"github.com/2389-research/echonote/internal/config"
	"github.com/2389-research/echonote/internal/models"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short", "Buy milk", 20, "Buy milk"},
		{"collapses whitespace", "Buy\n  milk", 20, "Buy milk"},
		{"cut", "abcdefghij", 4, "abcd..."},
		{"multibyte", "café crème", 4, "café..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestRenderNotes(t *testing.T) {
	ranked := models.NewNote("Buy milk")
	ranked.Score = mo.Some(0.91234)
	listed := models.NewNote("Buy bread")

	var buf bytes.Buffer
	renderNotes(&buf, []*models.Note{ranked, listed})
	out := buf.String()

	for _, want := range []string{"Buy milk", "Buy bread", "0.9123", ranked.ID.String()} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Buy milk") > strings.Index(out, "Buy bread") {
		t.Error("expected rows in result order")
	}
}

func TestMemoryStoreWarning(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.Config
		server string
		warn   bool
	}{
		{"default backend", config.Config{}, "", true},
		{"explicit memory", config.Config{Store: config.StoreConfig{Backend: "Memory"}}, "", true},
		{"sqlite", config.Config{Store: config.StoreConfig{Backend: config.BackendSQLite}}, "", false},
		{"server", config.Config{}, "http://localhost:8080", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := memoryStoreWarning(&tt.cfg, tt.server)
			if tt.warn && !strings.Contains(got, "discarded") {
				t.Errorf("expected a warning, got %q", got)
			}
			if !tt.warn && got != "" {
				t.Errorf("expected no warning, got %q", got)
			}
		})
	}
}
