// ABOUTME: Interactive capture TUI: transcribe a recording, edit the text, save it as a note.
// ABOUTME: Bubbletea model over the session state machine with async remote calls.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/echonote/internal/models"
	"github.com/2389-research/echonote/internal/session"
)

// AudioLoader reads the current recording.
type AudioLoader func() ([]byte, error)

type audioLoadedMsg struct {
	changed bool
	err     error
}

type transcribedMsg struct {
	text string
	err  error
}

type savedMsg struct {
	note *models.Note
	err  error
}

var (
	stateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// CaptureModel is the bubbletea model for the record command.
type CaptureModel struct {
	session   *session.Session
	loadAudio AudioLoader
	editor    textarea.Model
	spinner   spinner.Model
	ctx       context.Context
	cancel    context.CancelFunc

	busy     string
	err      error
	saved    *models.Note
	quitting bool
}

// NewCaptureModel creates the capture model. A nil loader starts a typed note.
func NewCaptureModel(ctx context.Context, s *session.Session, loader AudioLoader) CaptureModel {
	editor := textarea.New()
	editor.Placeholder = "Transcript appears here. Edit before saving."
	editor.SetWidth(72)
	editor.SetHeight(6)
	editor.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ctx, cancel := context.WithCancel(ctx)
	return CaptureModel{
		session:   s,
		loadAudio: loader,
		editor:    editor,
		spinner:   sp,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Init implements tea.Model.
func (m CaptureModel) Init() tea.Cmd {
	if m.loadAudio == nil {
		return textarea.Blink
	}
	return tea.Batch(textarea.Blink, m.loadCmd())
}

// Update implements tea.Model.
func (m CaptureModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEscape:
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		case tea.KeyCtrlT:
			return m.startTranscription()
		case tea.KeyCtrlS:
			return m.startSave()
		case tea.KeyCtrlR:
			if m.loadAudio == nil || m.busy != "" {
				return m, nil
			}
			m.err = nil
			return m, m.loadCmd()
		}
		return m.updateEditor(msg)

	case audioLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if msg.changed {
			m.editor.SetValue("")
			m.saved = nil
			return m.startTranscription()
		}
		return m, nil

	case transcribedMsg:
		m.busy = ""
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.editor.SetValue(msg.text)
		return m, nil

	case savedMsg:
		m.busy = ""
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.saved = msg.note
		return m, nil

	case spinner.TickMsg:
		if m.busy != "" {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m CaptureModel) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// no edits while a remote call runs or before the first transcript
	if m.busy != "" || m.session.State() == session.StateRecorded {
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if value := m.editor.Value(); value != m.session.Text() {
		if err := m.session.Edit(value); err != nil {
			m.err = err
		} else {
			m.saved = nil
		}
	}
	return m, cmd
}

func (m CaptureModel) startTranscription() (tea.Model, tea.Cmd) {
	if m.busy != "" {
		return m, nil
	}
	m.busy = "Transcribing"
	m.err = nil
	return m, tea.Batch(m.transcribeCmd(), m.spinner.Tick)
}

func (m CaptureModel) startSave() (tea.Model, tea.Cmd) {
	if m.busy != "" {
		return m, nil
	}
	m.busy = "Saving"
	m.err = nil
	return m, tea.Batch(m.saveCmd(), m.spinner.Tick)
}

func (m CaptureModel) loadCmd() tea.Cmd {
	loader, s := m.loadAudio, m.session
	return func() tea.Msg {
		audio, err := loader()
		if err != nil {
			return audioLoadedMsg{err: fmt.Errorf("failed to read audio: %w", err)}
		}
		changed, err := s.LoadAudio(audio)
		return audioLoadedMsg{changed: changed, err: err}
	}
}

func (m CaptureModel) transcribeCmd() tea.Cmd {
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		text, err := s.Transcribe(ctx)
		return transcribedMsg{text: text, err: err}
	}
}

func (m CaptureModel) saveCmd() tea.Cmd {
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		note, err := s.Save(ctx)
		return savedMsg{note: note, err: err}
	}
}

// View implements tea.Model.
func (m CaptureModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(brandStyle.Render("   ECHONOTE"))
	b.WriteString(titleStyle.Render(" - Record"))
	b.WriteString("\n\n")
	b.WriteString(stateStyle.Render("State: " + m.session.State().String()))
	b.WriteString("\n\n")
	b.WriteString(m.editor.View())
	b.WriteString("\n\n")

	switch {
	case m.busy != "":
		b.WriteString(m.spinner.View())
		b.WriteString(" " + m.busy + "...")
	case m.err != nil:
		b.WriteString(errorStyle.Render("✗ " + m.err.Error()))
	case m.saved != nil:
		b.WriteString(successStyle.Render(fmt.Sprintf("✓ Saved note %s", m.saved.ID)))
	}
	b.WriteString("\n\n")

	help := "ctrl+s save  ctrl+t transcribe  esc quit"
	if m.loadAudio != nil {
		help = "ctrl+s save  ctrl+t transcribe  ctrl+r reload audio  esc quit"
	}
	b.WriteString(helpStyle.Render(help))
	b.WriteString("\n")

	return b.String()
}

// Saved returns the last note saved in this model, if any.
func (m CaptureModel) Saved() *models.Note {
	return m.saved
}

// Err returns the last error shown to the user.
func (m CaptureModel) Err() error {
	return m.err
}
