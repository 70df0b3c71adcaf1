// ABOUTME: HTTP API command serving notes and transcription over gin.
// ABOUTME: Runs until interrupted, then shuts the server down gracefully.
package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/2389-research/echonote/internal/api"
	"github.com/2389-research/echonote/internal/transcribe"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve the note API on --addr (default from config, :8080).

Other echonote commands can share this server's store with --server.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if serverURL != "" {
		return fmt.Errorf("serve uses the local store; drop --server")
	}

	backend, err := openNotes(ctx, globalConfig)
	if err != nil {
		return err
	}
	defer backend.Close()

	var tr transcribe.Transcriber
	if t, err := newTranscriber(globalConfig); err == nil {
		tr = t
	}

	if globalConfig.Log.Level != "debug" && logLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	addr := serveAddr
	if addr == "" {
		addr = globalConfig.GetServerAddr()
	}

	controller := api.NewNoteController(backend.notes, tr, globalLogger)
	return api.Serve(ctx, addr, api.NewRouter(controller, version), globalLogger)
}
