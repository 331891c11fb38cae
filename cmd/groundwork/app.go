// Package main provides the groundwork CLI entry point.
// This file wires the backend stack shared by the non-interactive commands.
package main

import (
	"context"
	"fmt"
	"os"

	"groundwork/internal/classifier"
	"groundwork/internal/config"
	"groundwork/internal/llm"
	"groundwork/internal/logging"
	"groundwork/internal/pipeline"
	"groundwork/internal/store"
)

// app bundles the backend components every command needs: config, the record
// store, the LLM client, the intent classifier and the turn orchestrator.
type app struct {
	cfg          *config.Config
	store        store.Store
	orchestrator *pipeline.Orchestrator
	workspace    string
}

// resolveWorkspace returns the --workspace flag or the current directory.
func resolveWorkspace() string {
	if workspace != "" {
		return workspace
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// openApp loads config, initializes category logging and opens the store.
// When needLLM is false the orchestrator is not built, so commands that only
// read records work without an API key.
func openApp(ctx context.Context, needLLM bool) (*app, error) {
	ws := resolveWorkspace()

	cfg, err := config.Load(config.Path(ws))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := logging.Initialize(ws); err != nil {
		// Logging is best-effort; the command still works without files.
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	}

	st, err := store.NewSQLiteStore(cfg.Store.DatabasePath, cfg.GetBusyTimeout())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	a := &app{cfg: cfg, store: st, workspace: ws}

	if needLLM {
		client, err := llm.NewFromConfig(ctx, cfg.LLM)
		if err != nil {
			st.Close()
			return nil, err
		}
		intents := classifier.LoadOrTrain(ctx, st)
		a.orchestrator = pipeline.NewOrchestrator(st, client, intents, cfg)
	}

	return a, nil
}

// close drains background learning and releases the store and log files.
func (a *app) close() {
	if a.orchestrator != nil {
		a.orchestrator.Wait()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	logging.CloseAll()
}
