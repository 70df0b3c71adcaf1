// ABOUTME: CLI command that prints the transcript of an audio file.
// ABOUTME: Does not touch the note store.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389-research/echonote/internal/transcribe"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file>",
	Short: "Transcribe an audio file",
	Long:  "Send an audio file to the transcription model and print the text. Nothing is saved.",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	tr, err := newTranscriber(globalConfig)
	if err != nil {
		return err
	}

	text, err := transcribe.File(cmd.Context(), tr, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
