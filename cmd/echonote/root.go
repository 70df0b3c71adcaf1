// ABOUTME: Root Cobra command and global flags for the echonote CLI.
// ABOUTME: Loads config and installs the logger before every command except help, version, and setup.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/2389-research/echonote/internal/config"
	"github.com/2389-research/echonote/internal/logger"
)

var globalConfig *config.Config
var globalLogger *slog.Logger

var (
	serverURL string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "echonote",
	Short: "Voice notes with semantic search",
	Long: `
███████╗ ██████╗██╗  ██╗ ██████╗ ███╗   ██╗ ██████╗ ████████╗███████╗
██╔════╝██╔════╝██║  ██║██╔═══██╗████╗  ██║██╔═══██╗╚══██╔══╝██╔════╝
█████╗  ██║     ███████║██║   ██║██╔██╗ ██║██║   ██║   ██║   █████╗
██╔══╝  ██║     ██╔══██║██║   ██║██║╚██╗██║██║   ██║   ██║   ██╔══╝
███████╗╚██████╗██║  ██║╚██████╔╝██║ ╚████║╚██████╔╝   ██║   ███████╗
╚══════╝ ╚═════╝╚═╝  ╚═╝ ╚═════╝ ╚═╝  ╚═══╝ ╚═════╝    ╚═╝   ╚══════╝

Record or type notes, transcribe them, and find them again by meaning.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "setup" {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		globalConfig = cfg

		level := cfg.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		globalLogger = logger.New(logger.Config{
			Level:  logger.ParseLevel(level),
			Format: cfg.Log.Format,
			Output: os.Stderr,
		})

		if serverURL == "" {
			serverURL = os.Getenv("ECHONOTE_SERVER")
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the echonote version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Use a running echonote server (e.g. http://localhost:8080) instead of a local store")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.AddCommand(versionCmd)
}
