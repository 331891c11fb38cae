package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"groundwork/internal/pipeline"
	"groundwork/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	askProjectID string
	askJSON      bool
)

// askCmd runs a single conversation turn without the TUI
var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Run one intake turn against a project",
	Long: `Sends one message through the full pipeline and prints the reply
together with the open todos for the project.

Example:
  groundwork ask --project 7f3a... "The budget is $5,000 and we need it by March"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	message := strings.Join(args, " ")
	logger.Debug("running turn",
		zap.String("project", askProjectID),
		zap.Int("message_len", len(message)))

	result, err := a.orchestrator.HandleTurn(ctx, pipeline.TurnRequest{
		ProjectID: askProjectID,
		UserID:    userID,
		Message:   message,
		SessionID: session.NewSessionID(),
	})
	if err != nil {
		return fmt.Errorf("turn failed: %w", err)
	}

	if askJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println(result.Message)
	if len(result.Todos) > 0 {
		fmt.Println()
		fmt.Println("Open items:")
		for _, todo := range result.Todos {
			marker := " "
			if todo.IsNext {
				marker = ">"
			}
			fmt.Printf("  %s [%s] %s\n", marker, todo.Priority, todo.Title)
		}
	}
	return nil
}
