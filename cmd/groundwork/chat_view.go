// Package main provides the groundwork CLI entry point.
// This file contains the view rendering functions for the chat TUI.
package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *chatModel) View() string {
	if !m.ready {
		return "Starting groundwork..."
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")

	chat := m.viewport.View()
	if m.width >= 100 {
		sidebar := m.renderSidebar()
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, chat, sidebar))
	} else {
		sb.WriteString(chat)
	}
	sb.WriteString("\n")
	sb.WriteString(m.renderFooter())

	return sb.String()
}

func (m *chatModel) renderHeader() string {
	title := fmt.Sprintf(" groundwork · project %s ", m.projectID[:8])
	return m.styles.Header.Width(m.width).Render(title)
}

func (m *chatModel) renderFooter() string {
	if m.isLoading {
		return m.styles.Footer.Render(m.spinner.View() + " thinking...")
	}
	return m.textinput.View()
}

func (m *chatModel) renderHistory() string {
	var sb strings.Builder

	for _, msg := range m.history {
		switch msg.Role {
		case "user":
			userStyle := m.styles.Bold.
				Foreground(m.styles.Theme.Primary).
				MarginTop(1)
			sb.WriteString(userStyle.Render("You") + "\n")
			sb.WriteString(m.styles.UserInput.Render(msg.Content))
			sb.WriteString("\n")

		case "error":
			sb.WriteString(m.styles.Error.Render("! " + msg.Content))
			sb.WriteString("\n")

		default: // "assistant"
			assistantStyle := m.styles.Bold.
				Foreground(m.styles.Theme.Accent).
				MarginTop(1)
			sb.WriteString(assistantStyle.Render("groundwork") + "\n")
			sb.WriteString(m.safeRenderMarkdown(msg.Content))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// safeRenderMarkdown renders markdown, falling back to plain text when the
// renderer is unavailable or panics on malformed input.
func (m *chatModel) safeRenderMarkdown(content string) (out string) {
	if m.renderer == nil {
		return m.styles.Reply.Render(content)
	}
	defer func() {
		if r := recover(); r != nil {
			out = m.styles.Reply.Render(content)
		}
	}()
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return m.styles.Reply.Render(content)
	}
	return rendered
}

// renderSidebar shows the open intake items from the last gap detection.
func (m *chatModel) renderSidebar() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Open items"))
	sb.WriteString("\n")

	if len(m.todos) == 0 {
		sb.WriteString(m.styles.Muted.Render("Nothing yet. Say hi!"))
	}
	for _, todo := range m.todos {
		line := fmt.Sprintf("• %s", todo.Title)
		switch {
		case todo.IsNext:
			sb.WriteString(m.styles.TodoNext.Render("> " + todo.Title))
		case todo.Priority == "high" || todo.Priority == "critical":
			sb.WriteString(m.styles.TodoItem.Render(line))
		default:
			sb.WriteString(m.styles.Muted.Render(line))
		}
		sb.WriteString("\n")
	}

	return m.styles.Sidebar.
		Width(32).
		Height(m.viewport.Height - 2).
		Render(sb.String())
}
