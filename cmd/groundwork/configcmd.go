package main

import (
	"fmt"
	"os"

	"groundwork/internal/config"

	"github.com/spf13/cobra"
)

// configCmd groups configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage workspace configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file to the workspace",
	Long: `Creates .groundwork/config.yaml with the default provider, store and
pipeline settings. Existing config files are left untouched.`,
	RunE: runConfigInit,
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	ws := resolveWorkspace()
	path := config.Path(ws)

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	fmt.Println("Set your API key via ANTHROPIC_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY.")
	return nil
}
