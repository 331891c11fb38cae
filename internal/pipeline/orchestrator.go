package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"groundwork/internal/config"
	"groundwork/internal/llm"
	"groundwork/internal/logging"
	"groundwork/internal/session"
	"groundwork/internal/store"
	"groundwork/internal/types"
)

// OrchestratorApology is the outermost-boundary reply when a turn fails
// in a way no stage fallback could absorb.
const OrchestratorApology = "Sorry, something went wrong on my end. Could you say that again?"

// TurnRequest is one incoming chat turn.
type TurnRequest struct {
	ProjectID string
	UserID    string
	Message   string
	SessionID string
}

// Orchestrator runs the five stages for each turn: load state, analyze,
// detect gaps, plan, execute, save, then detach learning.
type Orchestrator struct {
	store    store.Store
	analyzer *Analyzer
	detector *Detector
	planner  *Planner
	executor *Executor
	learner  *Learner
	cfg      *config.Config

	locks keyedMutex

	// learning tracks detached learning passes so Close can drain them.
	learning sync.WaitGroup
}

// NewOrchestrator wires the five stages around the given collaborators.
func NewOrchestrator(st store.Store, client llm.Client, intents IntentModel, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		store:    st,
		analyzer: NewAnalyzer(client, cfg.LLM, cfg.Pipeline.HistoryWindow),
		detector: NewDetector(client, cfg.LLM),
		planner:  NewPlanner(client, cfg.LLM, cfg.Pipeline.HistoryWindow),
		executor: NewExecutor(client, intents, cfg.LLM, cfg.Pipeline.FastPathThreshold),
		learner:  NewLearner(client, cfg.LLM),
		cfg:      cfg,
	}
}

// turnState is everything a turn loads up front and saves at the end.
type turnState struct {
	project    *types.ProjectRecord
	knowledge  *types.KnowledgeRecord
	gaps       *types.GapRecord
	chat       *types.ChatHistory
	learning   *types.LearningRecord
	reflection *types.ReflectionRecord
}

// HandleTurn runs one full turn. Turns for the same project serialize
// on a per-project lock so the load-mutate-save cycle cannot lose
// updates; turns for different projects run in parallel.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (result *types.TurnResult, err error) {
	if req.ProjectID == "" || req.UserID == "" {
		return nil, fmt.Errorf("project id and user id are required")
	}

	unlock := o.locks.Lock(req.ProjectID)
	defer unlock()

	timer := logging.StartTimer("pipeline", "handle_turn")
	defer timer.Stop()

	// Outermost boundary: a panic in any stage becomes a fixed apology,
	// never a stack trace at the user.
	defer func() {
		if r := recover(); r != nil {
			logging.Pipeline("turn panicked project=%s: %v", req.ProjectID, r)
			session.SetPhase(ctx, o.store, req.ProjectID, session.PhaseFailed)
			result = &types.TurnResult{Message: OrchestratorApology, Todos: []types.Todo{}}
			err = nil
		}
	}()

	session.SetPhase(ctx, o.store, req.ProjectID, session.PhaseLoading)
	state, err := o.loadState(ctx, req)
	if err != nil {
		session.SetPhase(ctx, o.store, req.ProjectID, session.PhaseFailed)
		return nil, fmt.Errorf("failed to load project state: %w", err)
	}

	session.AppendUserTurn(state.chat, req.SessionID, req.Message)

	session.SetPhase(ctx, o.store, req.ProjectID, session.PhaseAnalyzing)
	{
		sctx, cancel := context.WithTimeout(ctx, o.cfg.GetStageTimeout())
		state.knowledge = o.analyzer.Analyze(sctx, state.project, state.chat, state.knowledge)
		cancel()
	}
	{
		sctx, cancel := context.WithTimeout(ctx, o.cfg.GetStageTimeout())
		state.gaps = o.detector.Detect(sctx, state.project, state.knowledge)
		cancel()
	}

	session.SetPhase(ctx, o.store, req.ProjectID, session.PhasePlanning)
	var plan *types.ActionPlan
	{
		sctx, cancel := context.WithTimeout(ctx, o.cfg.GetStageTimeout())
		plan = o.planner.Plan(sctx, state.gaps, state.knowledge, state.chat, state.learning)
		cancel()
	}

	session.SetPhase(ctx, o.store, req.ProjectID, session.PhaseResponding)
	var exec *ExecutionResult
	{
		sctx, cancel := context.WithTimeout(ctx, o.cfg.GetStageTimeout())
		exec = o.executor.Execute(sctx, req.Message, plan, state.project)
		cancel()
	}

	analysis := &types.TurnAnalysis{
		Knowledge: state.knowledge,
		Gaps:      state.gaps,
		Plan:      plan,
		Extracted: exec.Extracted,
	}
	session.AppendAssistantTurn(state.chat, req.SessionID, exec.Message, analysis)

	if err := o.saveState(ctx, req, state); err != nil {
		session.SetPhase(ctx, o.store, req.ProjectID, session.PhaseFailed)
		return nil, fmt.Errorf("failed to save project state: %w", err)
	}
	session.SetPhase(ctx, o.store, req.ProjectID, session.PhaseDone)

	o.spawnLearning(req, plan, exec, state)

	logging.Pipeline("turn complete project=%s fast_path=%v gaps=%d", req.ProjectID, exec.FastPath, len(state.gaps.CriticalGaps))
	return &types.TurnResult{
		Message:  exec.Message,
		Analysis: analysis,
		Todos:    state.gaps.Todos,
		Project:  state.project,
	}, nil
}

// loadState fetches all per-project and per-user records in parallel.
// Individual loads default missing or corrupt records; only transport
// failures surface.
func (o *Orchestrator) loadState(ctx context.Context, req TurnRequest) (*turnState, error) {
	state := &turnState{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		state.project, err = store.LoadProject(gctx, o.store, req.ProjectID)
		return err
	})
	g.Go(func() (err error) {
		state.knowledge, err = store.LoadKnowledge(gctx, o.store, req.ProjectID)
		return err
	})
	g.Go(func() (err error) {
		state.gaps, err = store.LoadGaps(gctx, o.store, req.ProjectID)
		return err
	})
	g.Go(func() (err error) {
		state.chat, err = store.LoadChat(gctx, o.store, req.ProjectID)
		return err
	})
	g.Go(func() (err error) {
		state.learning, err = store.LoadLearning(gctx, o.store, req.UserID)
		return err
	})
	g.Go(func() (err error) {
		state.reflection, err = store.LoadReflection(gctx, o.store, req.ProjectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return state, nil
}

// saveState persists the turn's mutations in parallel. The learning record
// is included because the planning stage records its interaction on it; the
// detached learning pass re-saves it best-effort with its own additions.
// Only the reflection record is left to the detached pass.
func (o *Orchestrator) saveState(ctx context.Context, req TurnRequest, state *turnState) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return store.SaveProject(gctx, o.store, state.project) })
	g.Go(func() error { return store.SaveKnowledge(gctx, o.store, req.ProjectID, state.knowledge) })
	g.Go(func() error { return store.SaveGaps(gctx, o.store, req.ProjectID, state.gaps) })
	g.Go(func() error { return store.SaveChat(gctx, o.store, req.ProjectID, state.chat) })
	g.Go(func() error { return store.SaveLearning(gctx, o.store, req.UserID, state.learning) })
	return g.Wait()
}

// spawnLearning detaches the learning pass. It runs on its own context,
// after the reply is already committed; failures are logged and dropped.
func (o *Orchestrator) spawnLearning(req TurnRequest, plan *types.ActionPlan, exec *ExecutionResult, state *turnState) {
	o.learning.Add(1)
	go func() {
		defer o.learning.Done()
		defer func() {
			if r := recover(); r != nil {
				logging.Learning("learning pass panicked project=%s: %v", req.ProjectID, r)
			}
		}()

		lctx, cancel := context.WithTimeout(context.Background(), 2*o.cfg.GetStageTimeout())
		defer cancel()

		o.learner.Learn(lctx, req.Message, plan, exec.Extracted, state.learning, state.reflection)

		if err := store.SaveLearning(lctx, o.store, req.UserID, state.learning); err != nil {
			logging.Learning("failed to save learning record user=%s: %v", req.UserID, err)
		}
		if err := store.SaveReflection(lctx, o.store, req.ProjectID, state.reflection); err != nil {
			logging.Learning("failed to save reflection record project=%s: %v", req.ProjectID, err)
		}
	}()
}

// Wait blocks until all detached learning passes have finished. Used at
// shutdown and in tests.
func (o *Orchestrator) Wait() {
	o.learning.Wait()
}

// keyedMutex serializes turns per project while leaving cross-project
// turns fully parallel.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
