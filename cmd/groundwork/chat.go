// Package main provides the groundwork CLI entry point.
// This file implements the interactive chat interface using bubbletea.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"groundwork/cmd/groundwork/ui"
	"groundwork/internal/config"
	"groundwork/internal/session"
	"groundwork/internal/store"
	"groundwork/internal/types"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// runInteractiveChat boots the backend and hands control to the TUI.
func runInteractiveChat() error {
	ctx := context.Background()

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	// Logging config changes take effect while the chat is open.
	watcher, err := config.NewWatcher(a.workspace, nil)
	if err == nil {
		watcher.Start(ctx)
		defer watcher.Stop()
	}

	project, err := resolveChatProject(ctx, a)
	if err != nil {
		return err
	}

	m := newChatModel(a, project)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("chat interface failed: %w", err)
	}
	return nil
}

// resolveChatProject picks the most recently updated project, creating one on
// first run.
func resolveChatProject(ctx context.Context, a *app) (*types.ProjectRecord, error) {
	keys, err := a.store.Keys(ctx, store.ProjectPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	var latest *types.ProjectRecord
	for _, key := range keys {
		id := strings.TrimPrefix(key, store.ProjectPrefix())
		p, err := store.LoadProject(ctx, a.store, id)
		if err != nil {
			continue
		}
		if latest == nil || p.UpdatedAt.After(latest.UpdatedAt) {
			latest = p
		}
	}
	if latest != nil {
		return latest, nil
	}

	p := types.NewProjectRecord(session.NewProjectID())
	p.EmailID = session.NewEmailAlias()
	if err := store.SaveProject(ctx, a.store, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

// newChatModel assembles the TUI components around the backend.
func newChatModel(a *app, project *types.ProjectRecord) *chatModel {
	styles := ui.DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "Describe your project... (Enter to send, Ctrl+C to exit)"
	ti.Focus()
	ti.Prompt = "| "
	ti.CharLimit = 4096
	ti.Width = 80
	ti.PromptStyle = styles.Prompt
	ti.TextStyle = styles.UserInput

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)
	vp.SetContent("")

	var renderer *glamour.TermRenderer
	if styles.Theme.IsDark {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
	} else {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath("light"),
			glamour.WithWordWrap(80),
		)
	}

	history := []chatMessage{{
		Role:    "assistant",
		Content: welcomeMessage(project),
		Time:    time.Now(),
	}}

	if os.Getenv("ANTHROPIC_API_KEY") == "" && os.Getenv("OPENAI_API_KEY") == "" &&
		os.Getenv("GEMINI_API_KEY") == "" && a.cfg.LLM.APIKey == "" {
		history = append(history, chatMessage{
			Role:    "assistant",
			Content: "No API key detected. I can still take notes, but set `ANTHROPIC_API_KEY` (or your provider's key) for full analysis.",
			Time:    time.Now(),
		})
	}

	m := &chatModel{
		textinput: ti,
		viewport:  vp,
		spinner:   sp,
		styles:    styles,
		renderer:  renderer,
		history:   history,
		app:       a,
		projectID: project.ID,
		sessionID: session.NewSessionID(),
	}

	// Seed the sidebar from the last turn's gap detection.
	if gaps, err := store.LoadGaps(context.Background(), a.store, project.ID); err == nil {
		m.todos = gaps.Todos
	}
	return m
}

func welcomeMessage(project *types.ProjectRecord) string {
	name := project.Name
	if name == "" {
		name = project.ID[:8]
	}
	return fmt.Sprintf("Hi! I'm here to help shape **%s** into a complete project brief.\n\nTell me what you're building, and I'll keep track of scope, timeline, budget, deliverables and dependencies as we talk.", name)
}
