// ABOUTME: Audio inbox that transcribes recordings dropped into a directory.
// ABOUTME: Watches with fsnotify, dedupes by content hash, and saves non-empty transcripts as notes.
package inbox

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/2389-research/echonote/internal/models"
	"github.com/2389-research/echonote/internal/notes"
	"github.com/2389-research/echonote/internal/transcribe"
)

// DefaultSettle is how long a file must stop changing before it is processed.
const DefaultSettle = 500 * time.Millisecond

var (
	// ErrUnsupported is returned for files that are not audio.
	ErrUnsupported = errors.New("not an audio file")
	// ErrDuplicate is returned when the same bytes were already processed.
	ErrDuplicate = errors.New("audio already processed")
	// ErrEmptyTranscript is returned when the recording contained no speech.
	ErrEmptyTranscript = errors.New("empty transcript")
)

// Watcher turns audio files in a directory into notes.
type Watcher struct {
	dir         string
	transcriber transcribe.Transcriber
	notes       notes.Service
	settle      time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	seen    map[string]bool
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle overrides the quiet period before a changed file is processed.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		w.settle = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, transcriber transcribe.Transcriber, svc notes.Service, opts ...Option) *Watcher {
	w := &Watcher{
		dir:         dir,
		transcriber: transcriber,
		notes:       svc,
		settle:      DefaultSettle,
		logger:      slog.Default(),
		seen:        make(map[string]bool),
		pending:     make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Process transcribes one file and saves the transcript.
// It returns ErrUnsupported, ErrDuplicate, or ErrEmptyTranscript when nothing was saved.
func (w *Watcher) Process(ctx context.Context, path string) (*models.Note, error) {
	if !transcribe.IsAudioFile(path) {
		return nil, ErrUnsupported
	}

	audio, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, ErrEmptyTranscript
	}

	sum := sha256.Sum256(audio)
	hash := hex.EncodeToString(sum[:])
	if !w.claim(hash) {
		return nil, ErrDuplicate
	}

	text, err := transcribe.Named(ctx, w.transcriber, filepath.Base(path), audio)
	if err != nil {
		w.release(hash)
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyTranscript
	}

	note, err := w.notes.Add(ctx, text)
	if err != nil {
		w.release(hash)
		return nil, err
	}
	return note, nil
}

// Scan processes audio files already present in the directory.
func (w *Watcher) Scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read inbox: %w", err)
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() || !transcribe.IsAudioFile(entry.Name()) {
			continue
		}
		w.handle(ctx, filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

// Run watches the directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching inbox", "dir", w.dir)

	defer w.wait()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !transcribe.IsAudioFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("inbox watcher error", "error", err)
		case <-ctx.Done():
			w.logger.Info("inbox watcher stopped")
			return nil
		}
	}
}

// schedule processes path once it has been quiet for the settle period.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		t.Reset(w.settle)
		return
	}

	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.settle, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == timer {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		w.handle(ctx, path)
	})
	w.pending[path] = timer
}

// wait stops queued timers and waits for in-flight work.
func (w *Watcher) wait() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Watcher) handle(ctx context.Context, path string) {
	note, err := w.Process(ctx, path)
	switch {
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrUnsupported):
		w.logger.Debug("inbox file skipped", "file", path, "reason", err)
	case errors.Is(err, ErrEmptyTranscript):
		w.logger.Info("inbox file had no speech", "file", path)
	case err != nil:
		w.logger.Error("inbox file failed", "file", path, "error", err)
	default:
		w.logger.Info("note saved from inbox", "file", path, "id", note.ID)
	}
}

func (w *Watcher) claim(hash string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[hash] {
		return false
	}
	w.seen[hash] = true
	return true
}

func (w *Watcher) release(hash string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.seen, hash)
}
