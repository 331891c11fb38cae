// Package main provides the groundwork CLI entry point.
// This file holds the chat model types and the bubbletea update loop.
package main

import (
	"context"
	"strings"
	"time"

	"groundwork/cmd/groundwork/ui"
	"groundwork/internal/pipeline"
	"groundwork/internal/types"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// chatMessage is one rendered entry in the conversation pane.
type chatMessage struct {
	Role    string // "user" | "assistant" | "error"
	Content string
	Time    time.Time
}

// chatModel is the main model for the interactive chat interface.
type chatModel struct {
	// UI components
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	styles    ui.Styles
	renderer  *glamour.TermRenderer

	// State
	history   []chatMessage
	todos     []types.Todo
	isLoading bool
	width     int
	height    int
	ready     bool

	// Session
	projectID string
	sessionID string
	turnCount int

	// Backend
	app *app
}

// turnDoneMsg carries the pipeline result back into the update loop.
type turnDoneMsg struct {
	result *types.TurnResult
	err    error
}

func (m *chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m *chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		if !m.ready {
			m.ready = true
		}
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.isLoading {
				return m, nil
			}
			input := strings.TrimSpace(m.textinput.Value())
			if input == "" {
				return m, nil
			}
			m.textinput.Reset()
			m.history = append(m.history, chatMessage{Role: "user", Content: input, Time: time.Now()})
			m.isLoading = true
			m.viewport.SetContent(m.renderHistory())
			m.viewport.GotoBottom()
			return m, tea.Batch(m.spinner.Tick, m.runTurn(input))
		}

	case spinner.TickMsg:
		if m.isLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case turnDoneMsg:
		m.isLoading = false
		m.turnCount++
		if msg.err != nil {
			m.history = append(m.history, chatMessage{
				Role:    "error",
				Content: msg.err.Error(),
				Time:    time.Now(),
			})
		} else {
			m.history = append(m.history, chatMessage{
				Role:    "assistant",
				Content: msg.result.Message,
				Time:    time.Now(),
			})
			m.todos = msg.result.Todos
		}
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
	}

	var tiCmd, vpCmd tea.Cmd
	m.textinput, tiCmd = m.textinput.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, tiCmd, vpCmd)

	return m, tea.Batch(cmds...)
}

// runTurn executes one pipeline turn off the UI goroutine.
func (m *chatModel) runTurn(input string) tea.Cmd {
	backend, projectID, sessionID := m.app, m.projectID, m.sessionID
	return func() tea.Msg {
		result, err := backend.orchestrator.HandleTurn(context.Background(), pipeline.TurnRequest{
			ProjectID: projectID,
			UserID:    userID,
			Message:   input,
			SessionID: sessionID,
		})
		return turnDoneMsg{result: result, err: err}
	}
}

// layout recomputes the pane dimensions after a resize.
func (m *chatModel) layout() {
	headerHeight := 1
	footerHeight := 3
	sidebarWidth := 34
	if m.width < 100 {
		sidebarWidth = 0 // Narrow terminals drop the todo pane
	}

	chatWidth := m.width - sidebarWidth
	if sidebarWidth > 0 {
		chatWidth -= 2 // Sidebar border
	}
	chatHeight := m.height - headerHeight - footerHeight
	if chatHeight < 3 {
		chatHeight = 3
	}

	m.viewport.Width = chatWidth
	m.viewport.Height = chatHeight
	m.textinput.Width = m.width - 6

	wrap := chatWidth - 2
	if wrap > 20 {
		if m.styles.Theme.IsDark {
			m.renderer, _ = glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(wrap),
			)
		} else {
			m.renderer, _ = glamour.NewTermRenderer(
				glamour.WithStylePath("light"),
				glamour.WithWordWrap(wrap),
			)
		}
	}
}

var _ tea.Model = (*chatModel)(nil)
