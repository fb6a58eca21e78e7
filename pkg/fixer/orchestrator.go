package fixer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/remedyhq/remedy/pkg/hosting"
	"github.com/remedyhq/remedy/pkg/llm"
	"github.com/remedyhq/remedy/pkg/models"
	"github.com/remedyhq/remedy/pkg/notify"
	"github.com/remedyhq/remedy/pkg/persistence"
	"github.com/remedyhq/remedy/pkg/session"
)

// Orchestrator drives the iteration-bounded remediation state machine. One
// Run is one fix session: download once, back up once, then up to
// MaxIterations of analyze, plan, execute, verify against the original
// download. A session's failure never propagates out of Run.
type Orchestrator struct {
	config   Config
	store    persistence.Persistence
	hosting  hosting.Client
	analyzer *Analyzer
	planner  *Planner
	executor *Executor
	deployer *Deployer
	notifier notify.Notifier
	strategy func() RetryStrategy
	logger   *slog.Logger

	locks workflowLocks
}

// NewOrchestrator wires the four phase components. newStrategy is called
// once per session so stateful strategies don't leak between sessions; nil
// means the stateless default.
func NewOrchestrator(
	config Config,
	store persistence.Persistence,
	hostingClient hosting.Client,
	llmClient llm.Client,
	notifier notify.Notifier,
	newStrategy func() RetryStrategy,
	logger *slog.Logger,
) *Orchestrator {
	config = config.withDefaults()

	if newStrategy == nil {
		newStrategy = func() RetryStrategy { return FreshAnalysisStrategy{} }
	}

	return &Orchestrator{
		config:   config,
		store:    store,
		hosting:  hostingClient,
		analyzer: NewAnalyzer(llmClient, config.AnalyzeModel),
		planner:  NewPlanner(llmClient, config.PlanModel),
		executor: NewExecutor(),
		deployer: NewDeployer(hostingClient),
		notifier: notifier,
		strategy: newStrategy,
		logger:   logger,
		locks:    workflowLocks{locks: make(map[string]*workflowLock)},
	}
}

// Run executes one full fix session for the report and returns the terminal
// session record. Every terminal path persists the session log and notifies
// the sink before returning; nothing is ever silent.
func (o *Orchestrator) Run(ctx context.Context, report models.ErrorReport) models.FixSession {
	log := session.New(o.store, report)
	logger := o.logger.With("session_id", log.ID(), "workflow_id", report.WorkflowID)

	logger.InfoContext(ctx, "Starting fix session", "error_node", report.ErrorNode)

	// Deploys to one workflow id race last-write-wins on the hosting side,
	// so same-id sessions queue here instead.
	unlock := o.locks.lock(report.WorkflowID)
	defer unlock()

	var winningPlan *models.FixPlan

	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(ctx, "Fix session panicked", "panic", r)
				log.MarkExhausted(fmt.Sprintf("session panic: %v", r))
			}
		}()

		winningPlan = o.runSession(ctx, log, report, logger)
	}()

	// Terminal bookkeeping must survive a canceled session context.
	terminalCtx := context.WithoutCancel(ctx)

	if err := log.Save(terminalCtx); err != nil {
		logger.ErrorContext(ctx, "Failed to persist session log", "error", err)
	}

	result := log.Snapshot()

	switch result.Outcome {
	case models.SessionOutcomeFixed:
		logger.InfoContext(ctx, "Fix session succeeded",
			"iteration", result.FixedIteration, "total_cost", result.TotalCost)
		o.notifier.NotifyFixed(terminalCtx, result, winningPlan)
	default:
		logger.WarnContext(ctx, "Fix session exhausted",
			"failure_reason", result.FailureReason, "total_cost", result.TotalCost)
		o.notifier.NotifyExhausted(terminalCtx, result)
	}

	return result
}

// runSession marks the terminal outcome on the log and returns the deployed
// plan when the session ends fixed.
func (o *Orchestrator) runSession(ctx context.Context, log *session.Log, report models.ErrorReport, logger *slog.Logger) *models.FixPlan {
	original, err := o.downloadAndBackup(ctx, log, report)
	if err != nil {
		logger.ErrorContext(ctx, "Session setup failed", "error", err)
		log.MarkExhausted(err.Error())

		return nil
	}

	strategy := o.strategy()

	for iteration := 1; iteration <= o.config.MaxIterations; iteration++ {
		logger.InfoContext(ctx, "Starting iteration", "iteration", iteration, "strategy", strategy.Name())

		plan, fixed := o.runIteration(ctx, log, report, original, strategy, iteration)
		if fixed {
			log.MarkFixed(iteration)

			return plan
		}

		if ctx.Err() != nil {
			log.MarkExhausted(fmt.Sprintf("session canceled: %v", ctx.Err()))

			return nil
		}
	}

	log.MarkExhausted("")

	return nil
}

// runIteration runs the four phases strictly in sequence against the
// original definition. A failed phase short-circuits the rest of the
// iteration; the caller decides whether another iteration follows.
func (o *Orchestrator) runIteration(
	ctx context.Context,
	log *session.Log,
	report models.ErrorReport,
	original *models.WorkflowDefinition,
	strategy RetryStrategy,
	iteration int,
) (*models.FixPlan, bool) {
	log.StartPhase(models.PhaseAnalyze, iteration)

	analysis, err := o.analyzer.Analyze(ctx, log, report, original)
	if err != nil {
		log.EndPhase(false, err.Error())
		strategy.RecordFailure(iteration, nil, "analysis failed")

		return nil, false
	}

	if analysis.TargetNode == nil {
		log.EndPhase(false, "target node not found")
		strategy.RecordFailure(iteration, nil, "target node not found")

		return nil, false
	}

	log.EndPhase(true, "")

	log.StartPhase(models.PhasePlan, iteration)

	plan, err := o.planner.Plan(ctx, log, analysis, strategy.PromptContext())
	if err != nil {
		log.EndPhase(false, err.Error())
		strategy.RecordFailure(iteration, nil, "planning failed")

		return nil, false
	}

	if plan == nil {
		log.EndPhase(false, "no usable plan")
		strategy.RecordFailure(iteration, nil, "no usable plan")

		return nil, false
	}

	log.EndPhase(true, "")

	log.StartPhase(models.PhaseExecute, iteration)

	candidate, err := o.executor.Apply(log, original, analysis, plan)
	if err != nil {
		log.EndPhase(false, err.Error())
		strategy.RecordFailure(iteration, plan, "plan application failed")

		return nil, false
	}

	if candidate == nil {
		log.EndPhase(false, "plan produced no candidate")
		strategy.RecordFailure(iteration, plan, "plan produced no candidate")

		return nil, false
	}

	log.EndPhase(true, "")

	log.StartPhase(models.PhaseVerify, iteration)

	if err := o.deployer.Deploy(ctx, log, report.WorkflowID, candidate); err != nil {
		log.EndPhase(false, err.Error())
		strategy.RecordFailure(iteration, plan, "deploy rejected")

		return nil, false
	}

	log.EndPhase(true, "")

	return plan, true
}

// downloadAndBackup fetches the current definition and persists the
// pre-session snapshot unconditionally, before any mutation attempt. The
// backup is never consumed automatically; it exists for manual restore.
func (o *Orchestrator) downloadAndBackup(ctx context.Context, log *session.Log, report models.ErrorReport) (*models.WorkflowDefinition, error) {
	downloaded, err := o.hosting.GetWorkflow(ctx, report.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to download workflow: %w", err)
	}

	original := &models.WorkflowDefinition{}
	if err := json.Unmarshal(downloaded.Raw, original); err != nil {
		return nil, fmt.Errorf("failed to decode workflow definition: %w", err)
	}

	backup := &models.Backup{
		Key:        models.BackupKey(report.WorkflowID, log.StartedAt()),
		WorkflowID: report.WorkflowID,
		TakenAt:    time.Now().UTC(),
		Definition: original,
	}

	if err := o.store.SaveBackup(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to persist backup: %w", err)
	}

	o.logger.InfoContext(ctx, "Workflow downloaded and backed up",
		"workflow_id", report.WorkflowID, "backup_key", backup.Key, "nodes", len(original.Nodes))

	return original, nil
}

// workflowLocks is a keyed mutex over workflow ids. Entries are reference
// counted and removed once the last holder unlocks, so the map stays
// bounded by the number of in-flight sessions.
type workflowLocks struct {
	mu    sync.Mutex
	locks map[string]*workflowLock
}

type workflowLock struct {
	mu   sync.Mutex
	refs int
}

func (w *workflowLocks) lock(workflowID string) func() {
	w.mu.Lock()

	entry, exists := w.locks[workflowID]
	if !exists {
		entry = &workflowLock{}
		w.locks[workflowID] = entry
	}

	entry.refs++

	w.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		w.mu.Lock()

		entry.refs--
		if entry.refs == 0 {
			delete(w.locks, workflowID)
		}

		w.mu.Unlock()
	}
}
