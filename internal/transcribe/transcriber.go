// ABOUTME: Transcription interface and OpenAI Whisper implementation.
// ABOUTME: Sends audio as a named file so the API can sniff its format.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	// DefaultModel is the OpenAI transcription model.
	DefaultModel = "whisper-1"
	// DefaultFilename is the name attached to raw audio bytes.
	DefaultFilename = "audio.mp3"
)

// Transcriber converts audio bytes into text.
type Transcriber interface {
	// Transcribe returns the transcript for audio. Silent input may yield "".
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// NamedTranscriber can declare the audio format through a filename.
type NamedTranscriber interface {
	TranscribeNamed(ctx context.Context, filename string, audio []byte) (string, error)
}

// Named transcribes audio under filename when t supports it.
func Named(ctx context.Context, t Transcriber, filename string, audio []byte) (string, error) {
	if nt, ok := t.(NamedTranscriber); ok && filename != "" {
		return nt.TranscribeNamed(ctx, filename, audio)
	}
	return t.Transcribe(ctx, audio)
}

// File reads and transcribes the audio file at path.
func File(ctx context.Context, t Transcriber, path string) (string, error) {
	if !IsAudioFile(path) {
		return "", fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}
	audio, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read audio: %w", err)
	}
	return Named(ctx, t, filepath.Base(path), audio)
}

// OpenAITranscriber transcribes audio with the OpenAI audio API.
type OpenAITranscriber struct {
	client   openai.Client
	model    string
	filename string
}

type options struct {
	baseURL  string
	filename string
}

// Option configures an OpenAITranscriber.
type Option func(*options)

// WithBaseURL points the client at a different API host.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithFilename sets the filename sent with the audio, which declares its format.
func WithFilename(name string) Option {
	return func(o *options) {
		o.filename = name
	}
}

// NewOpenAITranscriber creates a transcriber for the given API key.
func NewOpenAITranscriber(apiKey string, opts ...Option) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	o := options{filename: DefaultFilename}
	for _, opt := range opts {
		opt(&o)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}

	return &OpenAITranscriber{
		client:   openai.NewClient(reqOpts...),
		model:    DefaultModel,
		filename: filepath.Base(o.filename),
	}, nil
}

// Transcribe sends the audio to the API and returns the transcript text.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return t.TranscribeNamed(ctx, t.filename, audio)
}

// TranscribeNamed transcribes audio declaring the given filename, e.g. "memo.wav".
func (t *OpenAITranscriber) TranscribeNamed(ctx context.Context, filename string, audio []byte) (string, error) {
	if filename == "" {
		filename = t.filename
	}
	filename = filepath.Base(filename)

	file := openai.File(bytes.NewReader(audio), filename, ContentType(filename))

	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:           file,
		Model:          openai.AudioModel(t.model),
		ResponseFormat: openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}

	return resp.Text, nil
}

// ContentType returns the MIME type declared for an audio filename.
func ContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mp3", ".mpga", ".mpeg":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	case ".flac":
		return "audio/flac"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// IsAudioFile reports whether the filename has an extension the API accepts.
func IsAudioFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3", ".mpga", ".mpeg", ".wav", ".m4a", ".mp4", ".ogg", ".webm", ".flac":
		return true
	}
	return false
}

var (
	_ Transcriber      = (*OpenAITranscriber)(nil)
	_ NamedTranscriber = (*OpenAITranscriber)(nil)
)
