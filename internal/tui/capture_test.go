// ABOUTME: Unit tests for the capture TUI bubbletea model.
// ABOUTME: Drives the model with synthetic messages and runs its commands inline.
package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/echonote/internal/notes"
	"github.com/2389-research/echonote/internal/session"
	"github.com/2389-research/echonote/internal/testutil"
)

func newCaptureFixture(t *testing.T, transcript string, audio []byte) (CaptureModel, *notes.Repository, *testutil.FakeTranscriber) {
	t.Helper()
	repo := notes.NewRepository(testutil.NewRecordingStore(), testutil.NewGroceryEmbedder(8))
	if err := repo.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection error: %v", err)
	}
	tr := &testutil.FakeTranscriber{Text: transcript}
	s := session.New(tr, repo)

	var loader AudioLoader
	if audio != nil {
		loader = func() ([]byte, error) { return audio, nil }
	}
	return NewCaptureModel(context.Background(), s, loader), repo, tr
}

// run feeds msg to the model and keeps executing returned commands, skipping
// spinner ticks and blinks, until no model-relevant message remains.
func run(t *testing.T, m CaptureModel, msg tea.Msg) CaptureModel {
	t.Helper()
	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		updated, cmd := m.Update(next)
		m = updated.(CaptureModel)
		if key, ok := next.(tea.KeyMsg); ok && key.Type == tea.KeyRunes {
			// editor commands only drive cursor blinking
			continue
		}
		queue = append(queue, drain(cmd)...)
	}
	return m
}

func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, drain(c)...)
		}
		return out
	case audioLoadedMsg, transcribedMsg, savedMsg:
		return []tea.Msg{msg}
	default:
		return nil
	}
}

func TestCapture_LoadTranscribeSave(t *testing.T) {
	m, repo, tr := newCaptureFixture(t, "Buy milk", []byte("audio"))

	m = run(t, m, m.loadCmd()())
	if tr.Calls() != 1 {
		t.Fatalf("expected automatic transcription after load, got %d calls", tr.Calls())
	}
	if m.editor.Value() != "Buy milk" {
		t.Errorf("expected transcript in editor, got %q", m.editor.Value())
	}
	if m.session.State() != session.StateTranscribed {
		t.Errorf("expected transcribed state, got %s", m.session.State())
	}

	m = run(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.Err() != nil {
		t.Fatalf("unexpected error: %v", m.Err())
	}
	if m.Saved() == nil || m.Saved().Text != "Buy milk" {
		t.Fatalf("expected saved note, got %+v", m.Saved())
	}
	if !strings.Contains(m.View(), "Saved note") {
		t.Error("expected view to confirm the save")
	}

	n, _ := repo.Count(context.Background())
	if n != 1 {
		t.Errorf("expected 1 stored note, got %d", n)
	}
}

func TestCapture_EditBeforeSave(t *testing.T) {
	m, _, _ := newCaptureFixture(t, "buy milk", []byte("audio"))
	m = run(t, m, m.loadCmd()())

	m = run(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("!")})
	if m.session.State() != session.StateEdited {
		t.Fatalf("expected edited state, got %s", m.session.State())
	}
	if !strings.HasSuffix(m.session.Text(), "!") {
		t.Errorf("expected edit to reach the session, got %q", m.session.Text())
	}

	m = run(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.Saved() == nil || !strings.HasSuffix(m.Saved().Text, "!") {
		t.Errorf("expected edited text saved, got %+v", m.Saved())
	}
}

func TestCapture_ReloadSameAudioKeepsEdits(t *testing.T) {
	m, _, tr := newCaptureFixture(t, "note", []byte("audio"))
	m = run(t, m, m.loadCmd()())
	m = run(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})

	m = run(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	if tr.Calls() != 1 {
		t.Errorf("expected no new transcription for unchanged audio, got %d calls", tr.Calls())
	}
	if m.session.State() != session.StateEdited {
		t.Errorf("expected edits kept, got %s", m.session.State())
	}
}

func TestCapture_TypedNote(t *testing.T) {
	m, _, tr := newCaptureFixture(t, "", nil)
	if cmd := m.Init(); cmd == nil {
		t.Error("expected blink cmd")
	}

	m = run(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("bagel")})
	m = run(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.Saved() == nil || m.Saved().Text != "bagel" {
		t.Fatalf("expected typed note saved, got %+v (err %v)", m.Saved(), m.Err())
	}
	if tr.Calls() != 0 {
		t.Errorf("expected no transcription for typed note, got %d", tr.Calls())
	}
	if strings.Contains(m.View(), "reload audio") {
		t.Error("expected no reload hint without an audio source")
	}
}

func TestCapture_SaveEmptyTranscriptShowsError(t *testing.T) {
	m, _, _ := newCaptureFixture(t, "", []byte("silence"))
	m = run(t, m, m.loadCmd()())

	m = run(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !errors.Is(m.Err(), notes.ErrEmptyNote) {
		t.Fatalf("expected ErrEmptyNote, got %v", m.Err())
	}
	if !strings.Contains(m.View(), "note text is empty") {
		t.Error("expected error in view")
	}
}

func TestCapture_TranscriptionError(t *testing.T) {
	m, _, tr := newCaptureFixture(t, "", []byte("audio"))
	tr.Err = errors.New("invalid file format")

	m = run(t, m, m.loadCmd()())
	if m.Err() == nil || !strings.Contains(m.Err().Error(), "invalid file format") {
		t.Fatalf("expected transcription error, got %v", m.Err())
	}
	if m.busy != "" {
		t.Error("expected busy flag cleared after failure")
	}
}

func TestCapture_LoaderError(t *testing.T) {
	m, _, _ := newCaptureFixture(t, "", nil)
	m.loadAudio = func() ([]byte, error) { return nil, errors.New("no such file") }

	m = run(t, m, m.loadCmd()())
	if m.Err() == nil || !strings.Contains(m.Err().Error(), "failed to read audio") {
		t.Fatalf("expected loader error, got %v", m.Err())
	}
}

func TestCapture_KeysIgnoredWhileBusy(t *testing.T) {
	m, _, _ := newCaptureFixture(t, "x", nil)
	m.busy = "Saving"

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = updated.(CaptureModel)
	if cmd != nil {
		t.Error("expected no cmd while busy")
	}
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	m = updated.(CaptureModel)
	if m.editor.Value() != "" {
		t.Error("expected editor locked while busy")
	}
}

func TestCapture_QuitCancelsContext(t *testing.T) {
	m, _, _ := newCaptureFixture(t, "", nil)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	m = updated.(CaptureModel)
	if cmd == nil {
		t.Error("expected quit cmd")
	}
	if m.ctx.Err() == nil {
		t.Error("expected context cancelled on quit")
	}
}
