// ABOUTME: Capture session state machine: load audio, transcribe, edit, save.
// ABOUTME: Tracks the audio hash so a new recording resets the transcript and edits.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/2389-research/echonote/internal/models"
	"github.com/2389-research/echonote/internal/notes"
	"github.com/2389-research/echonote/internal/transcribe"
)

var (
	// ErrInvalidTransition is returned when a trigger is not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrEmptyAudio is returned when no audio bytes are loaded.
	ErrEmptyAudio = errors.New("audio is empty")
	// ErrAudioChanged is returned when new audio was loaded while a transcription ran.
	ErrAudioChanged = errors.New("audio changed during transcription")
)

// State is the position of a session in the capture flow.
type State int

const (
	StateIdle State = iota
	StateRecorded
	StateTranscribed
	StateEdited
	StateSaved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecorded:
		return "recorded"
	case StateTranscribed:
		return "transcribed"
	case StateEdited:
		return "edited"
	case StateSaved:
		return "saved"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// NoteAdder persists note text. *notes.Repository satisfies it.
type NoteAdder interface {
	Add(ctx context.Context, text string) (*models.Note, error)
}

// Session holds one user's capture in progress. It is safe for concurrent use;
// remote calls run without holding the lock.
type Session struct {
	transcriber transcribe.Transcriber
	notes       NoteAdder

	mu         sync.Mutex
	state      State
	audio      []byte
	audioHash  string
	transcript string
	text       string
	saved      *models.Note
}

// New creates an idle session.
func New(transcriber transcribe.Transcriber, adder NoteAdder) *Session {
	return &Session{transcriber: transcriber, notes: adder}
}

// LoadAudio installs a recording. Different bytes reset the transcript and
// edits; the same bytes again change nothing. It reports whether anything changed.
func (s *Session) LoadAudio(audio []byte) (bool, error) {
	if len(audio) == 0 {
		return false, ErrEmptyAudio
	}
	hash := HashAudio(audio)

	s.mu.Lock()
	defer s.mu.Unlock()
	if hash == s.audioHash {
		return false, nil
	}

	s.audio = append([]byte(nil), audio...)
	s.audioHash = hash
	s.transcript = ""
	s.text = ""
	s.saved = nil
	s.state = StateRecorded
	return true, nil
}

// Transcribe converts the loaded audio to text, replacing any edits.
func (s *Session) Transcribe(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.state == StateIdle || len(s.audio) == 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: transcribe from %s", ErrInvalidTransition, s.state)
	}
	audio := s.audio
	hash := s.audioHash
	s.mu.Unlock()

	transcript, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audioHash != hash {
		return "", ErrAudioChanged
	}
	s.transcript = transcript
	s.text = transcript
	s.saved = nil
	s.state = StateTranscribed
	return transcript, nil
}

// Edit replaces the note text. From idle it starts a typed note.
func (s *Session) Edit(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateIdle, StateTranscribed, StateEdited, StateSaved:
	default:
		return fmt.Errorf("%w: edit from %s", ErrInvalidTransition, s.state)
	}
	s.text = text
	s.saved = nil
	s.state = StateEdited
	return nil
}

// Save stores the current text as a note. If new audio was loaded while the
// note was being stored, the session keeps the new recording and Save returns
// ErrAudioChanged.
func (s *Session) Save(ctx context.Context) (*models.Note, error) {
	s.mu.Lock()
	if s.state != StateTranscribed && s.state != StateEdited {
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: save from %s", ErrInvalidTransition, state)
	}
	text := s.text
	hash := s.audioHash
	s.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return nil, notes.ErrEmptyNote
	}

	note, err := s.notes.Add(ctx, text)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audioHash != hash {
		// the note is stored, but it belongs to the previous recording
		return nil, fmt.Errorf("%w: note %s saved from the previous recording", ErrAudioChanged, note.ID)
	}
	if s.text != text {
		// edited while saving; the newer text is still unsaved
		return note, nil
	}
	s.saved = note
	s.state = StateSaved
	return note, nil
}

// Reset discards everything and returns to idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.audio = nil
	s.audioHash = ""
	s.transcript = ""
	s.text = ""
	s.saved = nil
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Text returns the note text that Save would store.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Transcript returns the last transcript, unaffected by edits.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// AudioHash returns the hex sha256 of the loaded audio, or "".
func (s *Session) AudioHash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audioHash
}

// Saved returns the note from the last successful save, if still current.
func (s *Session) Saved() *models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// HashAudio returns the hex sha256 of audio bytes.
func HashAudio(audio []byte) string {
	sum := sha256.Sum256(audio)
	return hex.EncodeToString(sum[:])
}
