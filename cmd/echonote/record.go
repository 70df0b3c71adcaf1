// ABOUTME: Interactive capture command: transcribe a recording, edit it, save it as a note.
// ABOUTME: Runs the setup wizard first when no API key is configured.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/echonote/internal/config"
	"github.com/2389-research/echonote/internal/session"
	"github.com/2389-research/echonote/internal/transcribe"
	"github.com/2389-research/echonote/internal/tui"
)

var recordCmd = &cobra.Command{
	Use:   "record [file]",
	Short: "Transcribe, edit, and save a recording",
	Long: `Open the capture screen for an audio file. The recording is transcribed,
the transcript can be edited, and ctrl+s saves it as a note. Press ctrl+r
after re-recording to the same path to pick up the new audio.

Without a file, the capture screen starts empty for a typed note.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg := globalConfig
	if !cfg.HasOpenAIKey() {
		saved, err := runSetupWizard()
		if err != nil {
			return err
		}
		if !saved {
			return fmt.Errorf("an API key is required to record notes")
		}
		if cfg, err = config.Load(); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		globalConfig = cfg
	}

	var loader tui.AudioLoader
	var trOpts []transcribe.Option
	if len(args) == 1 {
		path := args[0]
		if !transcribe.IsAudioFile(path) {
			return fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
		}
		loader = func() ([]byte, error) {
			return os.ReadFile(path)
		}
		trOpts = append(trOpts, transcribe.WithFilename(filepath.Base(path)))
	}

	tr, err := newTranscriber(cfg, trOpts...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	backend, err := openNotes(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	model := tui.NewCaptureModel(ctx, session.New(tr, backend.notes), loader)
	result, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tui.CaptureModel)
	if note := final.Saved(); note != nil {
		fmt.Printf("Note saved: %s\n", note.ID)
		if warning := memoryStoreWarning(cfg, serverURL); warning != "" {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", warning)
		}
	}
	return nil
}
