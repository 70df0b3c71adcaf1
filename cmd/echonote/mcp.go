// ABOUTME: MCP server command implementation for echonote.
// ABOUTME: Starts the MCP server in stdio mode for AI agent integration.
package main

import (
	"github.com/spf13/cobra"

	mcppkg "github.com/2389-research/echonote/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server (stdio mode)",
	Long: `Start the Model Context Protocol server for AI agent integration.

The MCP server communicates via stdio, allowing AI agents to add, search,
and transcribe notes through a standardized protocol.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	backend, err := openNotes(ctx, globalConfig)
	if err != nil {
		return err
	}
	defer backend.Close()

	var opts []mcppkg.ServerOption
	if tr, err := newTranscriber(globalConfig); err == nil {
		opts = append(opts, mcppkg.WithTranscriber(tr))
	} else {
		globalLogger.Warn("transcribe_audio disabled", "error", err)
	}

	server, err := mcppkg.NewServer(backend.notes, version, opts...)
	if err != nil {
		return err
	}

	return server.Serve(ctx)
}
