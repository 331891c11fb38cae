package main

import (
	"context"
	"fmt"
	"strings"

	"groundwork/internal/session"
	"groundwork/internal/store"
	"groundwork/internal/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var projectName string

// projectCmd groups the project record commands
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage intake project records",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known projects",
	RunE:  runProjectList,
}

var projectShowCmd = &cobra.Command{
	Use:   "show [project-id]",
	Short: "Show the current brief for a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectShow,
}

var projectNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a project and assign its intake alias",
	RunE:  runProjectNew,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete [project-id]",
	Short: "Delete a project and all its records",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

// todosCmd prints the open items derived from the last gap detection
var todosCmd = &cobra.Command{
	Use:   "todos [project-id]",
	Short: "Show the open intake items for a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runTodos,
}

// statusCmd reports the processing phase of the last turn
var statusCmd = &cobra.Command{
	Use:   "status [project-id]",
	Short: "Show the processing phase of the last turn",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runProjectList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	keys, err := a.store.Keys(ctx, store.ProjectPrefix())
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}
	if len(keys) == 0 {
		fmt.Println("No projects yet. Run `groundwork project new` to create one.")
		return nil
	}

	for _, key := range keys {
		id := strings.TrimPrefix(key, store.ProjectPrefix())
		p, err := store.LoadProject(ctx, a.store, id)
		if err != nil {
			logger.Warn("skipping unreadable project", zap.String("id", id), zap.Error(err))
			continue
		}
		name := p.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("%s  %-10s  %s\n", p.ID, p.Status, name)
	}
	return nil
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	p, err := store.LoadProject(ctx, a.store, args[0])
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	fmt.Printf("Project:      %s\n", p.ID)
	if p.Name != "" {
		fmt.Printf("Name:         %s\n", p.Name)
	}
	if p.EmailID != "" {
		fmt.Printf("Intake alias: %s\n", p.EmailID)
	}
	fmt.Printf("Status:       %s\n", p.Status)
	printField("Scope", p.Scope)
	printField("Timeline", p.Timeline)
	printField("Budget", p.Budget)
	printField("Deliverables", strings.Join(p.Deliverables, ", "))
	printField("Dependencies", strings.Join(p.Dependencies, ", "))
	fmt.Printf("Updated:      %s\n", p.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func printField(label, value string) {
	if value == "" {
		value = "(not captured)"
	}
	fmt.Printf("%-13s %s\n", label+":", value)
}

func runProjectNew(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	p := types.NewProjectRecord(session.NewProjectID())
	p.Name = projectName
	p.EmailID = session.NewEmailAlias()
	if err := store.SaveProject(ctx, a.store, p); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	fmt.Printf("Created project %s\n", p.ID)
	fmt.Printf("Intake alias: %s\n", p.EmailID)
	return nil
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	id := args[0]
	keys := []string{
		store.ProjectKey(id),
		store.KnowledgeKey(id),
		store.GapsKey(id),
		store.ReflectionKey(id),
		store.ChatKey(id),
		store.ProcessingKey(id),
	}
	for _, key := range keys {
		if err := a.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	fmt.Printf("Deleted project %s\n", id)
	return nil
}

func runTodos(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	gaps, err := store.LoadGaps(ctx, a.store, args[0])
	if err != nil {
		return fmt.Errorf("failed to load gaps: %w", err)
	}
	if len(gaps.Todos) == 0 {
		fmt.Println("Nothing open. The brief looks complete.")
		return nil
	}

	for _, todo := range gaps.Todos {
		marker := " "
		if todo.IsNext {
			marker = ">"
		}
		fmt.Printf("  %s [%s] %s\n", marker, todo.Priority, todo.Title)
		if todo.Reason != "" {
			fmt.Printf("      %s\n", todo.Reason)
		}
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	status := session.GetPhase(ctx, a.store, args[0])
	fmt.Printf("Phase: %s\n", status.Phase)
	if !status.UpdatedAt.IsZero() {
		fmt.Printf("As of: %s\n", status.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
