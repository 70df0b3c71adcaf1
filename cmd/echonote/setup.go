// ABOUTME: Cobra command for interactive OpenAI credential setup.
// ABOUTME: Launches a bubbletea TUI wizard to collect, validate, and save the API key.
package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/2389-research/echonote/internal/config"
	"github.com/2389-research/echonote/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure your OpenAI API key",
	Long:  "Interactive wizard to configure and validate the OpenAI credential used for transcription and embeddings.",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	saved, err := runSetupWizard()
	if err != nil {
		return err
	}
	if !saved {
		fmt.Println("Setup cancelled.")
		return nil
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		fmt.Println("Config saved successfully.")
	} else {
		fmt.Printf("Config saved to %s\n", configPath)
	}
	return nil
}

// runSetupWizard runs the wizard and persists the result. It edits the file
// config only, so exported environment variables are never written to disk.
func runSetupWizard() (bool, error) {
	cfg, err := config.LoadFile()
	if err != nil {
		return false, fmt.Errorf("failed to load config: %w", err)
	}

	model := tui.NewSetupModel(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey)

	p := tea.NewProgram(model)
	result, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tui.SetupModel)
	if !final.ShouldSave() {
		return false, nil
	}

	baseURL, apiKey := final.Result()
	if baseURL == tui.DefaultBaseURL {
		baseURL = ""
	}
	cfg.OpenAI.BaseURL = baseURL
	cfg.OpenAI.APIKey = apiKey

	if err := cfg.Save(); err != nil {
		return false, fmt.Errorf("failed to save config: %w", err)
	}
	return true, nil
}
