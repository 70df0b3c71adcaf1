// ABOUTME: CLI commands for note operations.
// ABOUTME: Provides add, search, and status subcommands over the note service.
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/2389-research/echonote/internal/models"
	"github.com/2389-research/echonote/internal/notes"
	"github.com/2389-research/echonote/internal/transcribe"
)

var addCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Save a note",
	Long: `Save a typed note, or transcribe an audio file and save the transcript.

  echonote add "Buy milk and bread"
  echonote add --audio memo.m4a`,
	Args: cobra.ArbitraryArgs,
	RunE: runAdd,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search notes by meaning",
	Long:  "Rank notes by similarity to the query. Without a query, list stored notes unranked.",
	Args:  cobra.ArbitraryArgs,
	RunE:  runSearch,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store and note count",
	RunE:  runStatus,
}

// Flags
var (
	addAudioPath string
)

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statusCmd)

	addCmd.Flags().StringVar(&addAudioPath, "audio", "", "Transcribe this audio file and save the transcript")
}

func runAdd(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if addAudioPath == "" && strings.TrimSpace(text) == "" {
		return fmt.Errorf("note text is required (or use --audio <file>)")
	}

	ctx := cmd.Context()
	if addAudioPath != "" {
		tr, err := newTranscriber(globalConfig)
		if err != nil {
			return err
		}
		transcript, err := transcribe.File(ctx, tr, addAudioPath)
		if err != nil {
			return err
		}
		if strings.TrimSpace(transcript) == "" {
			return fmt.Errorf("no speech found in %s", addAudioPath)
		}
		text = transcript
		fmt.Fprintf(cmd.OutOrStdout(), "Transcript: %s\n", transcript)
	}

	backend, err := openNotes(ctx, globalConfig)
	if err != nil {
		return err
	}
	defer backend.Close()

	note, err := backend.notes.Add(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Note saved: %s\n", note.ID)
	if warning := memoryStoreWarning(globalConfig, serverURL); warning != "" {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", warning)
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	backend, err := openNotes(ctx, globalConfig)
	if err != nil {
		return err
	}
	defer backend.Close()

	results, err := backend.notes.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No notes found.")
		return nil
	}
	renderNotes(cmd.OutOrStdout(), results)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	backend, err := openNotes(ctx, globalConfig)
	if err != nil {
		return err
	}
	defer backend.Close()

	count, err := backend.notes.Count(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Setting", "Value")
	if backend.repo != nil {
		table.Append("Store", globalConfig.StoreBackend())
		table.Append("Embedder", globalConfig.EmbeddingProvider())
		table.Append("Collection", backend.repo.Collection())
		table.Append("Dimension", fmt.Sprintf("%d", backend.repo.Dimension()))
	} else {
		table.Append("Server", serverURL)
		table.Append("Collection", notes.DefaultCollection)
	}
	table.Append("Notes", fmt.Sprintf("%d", count))
	table.Render()
	return nil
}

func renderNotes(w io.Writer, results []*models.Note) {
	table := tablewriter.NewWriter(w)
	table.Header("Score", "Created", "Note", "ID")
	for _, n := range results {
		created := ""
		if !n.CreatedAt.IsZero() {
			created = n.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		table.Append(models.FormatScore(n.Score), created, truncate(n.Text, 60), n.ID.String())
	}
	table.Render()
}

func truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
