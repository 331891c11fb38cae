// Package main provides the groundwork CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose   bool
	workspace string
	userID    string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "groundwork",
	Short: "groundwork - conversational project intake assistant",
	Long: `groundwork runs a staged conversation pipeline that turns free-form
messages into a structured project brief.

Each turn is analyzed for scope, timeline, budget, deliverables and
dependencies, the missing fields are ranked, and the assistant asks the
single most useful next question. Everything learned is persisted per
project in a local SQLite store.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip logger init for interactive mode (it has its own UI)
		if cmd.Use == "groundwork" && cmd.CalledAs() == "groundwork" {
			return nil
		}

		// Initialize logger
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch interactive chat
		return runInteractiveChat()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "local", "User id for learning records")

	// Ask flags
	askCmd.Flags().StringVarP(&askProjectID, "project", "p", "", "Project id (required)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the full turn result as JSON")
	askCmd.MarkFlagRequired("project")

	// Project subcommands
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectNewCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	projectNewCmd.Flags().StringVar(&projectName, "name", "", "Project name")

	// Config subcommands
	configCmd.AddCommand(configInitCmd)

	// Add commands to root
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(todosCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
