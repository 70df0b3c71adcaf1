// ABOUTME: Inbox command that turns audio files dropped into a directory into notes.
// ABOUTME: Processes files already present, then watches for new ones until interrupted.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/2389-research/echonote/internal/config"
	"github.com/2389-research/echonote/internal/inbox"
)

var watchSkipExisting bool

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Transcribe audio files dropped into a directory",
	Long: `Watch a directory for audio recordings. Each new recording is transcribed
and saved as a note. Identical recordings are saved once.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchSkipExisting, "skip-existing", false, "Ignore files already in the directory")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dir, err := config.ExpandPath(args[0])
	if err != nil {
		return err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	tr, err := newTranscriber(globalConfig)
	if err != nil {
		return err
	}

	backend, err := openNotes(ctx, globalConfig)
	if err != nil {
		return err
	}
	defer backend.Close()

	if warning := memoryStoreWarning(globalConfig, serverURL); warning != "" {
		globalLogger.Warn(warning)
	}

	w := inbox.NewWatcher(dir, tr, backend.notes, inbox.WithLogger(globalLogger))
	if !watchSkipExisting {
		if err := w.Scan(ctx); err != nil {
			return err
		}
	}
	return w.Run(ctx)
}
