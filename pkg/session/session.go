// Package session implements the structured session log: the append-only
// record of one remediation attempt. It never calls any other system; its
// only failure mode is storage I/O on Save.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/remedyhq/remedy/pkg/models"
	"github.com/remedyhq/remedy/pkg/persistence"
)

// Log owns one models.FixSession and its phase bookkeeping. Phases are
// never nested: StartPhase makes the new phase current, and LogStep,
// LogAPICall and EndPhase apply to the current phase only.
type Log struct {
	mu      sync.Mutex
	session *models.FixSession
	current *models.Phase
	store   persistence.Persistence
}

// New opens a log for one error report with a fresh session id.
func New(store persistence.Persistence, report models.ErrorReport) *Log {
	return &Log{
		session: &models.FixSession{
			ID:        uuid.New().String(),
			StartedAt: time.Now().UTC(),
			Report:    report,
			Phases:    []*models.Phase{},
			Outcome:   models.SessionOutcomeRunning,
		},
		store: store,
	}
}

// ID returns the session's globally unique id.
func (l *Log) ID() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.session.ID
}

// StartedAt returns the session start timestamp.
func (l *Log) StartedAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.session.StartedAt
}

// StartPhase opens a new phase and makes it current. An unfinished current
// phase is closed as failed first, so phases stay strictly sequential.
func (l *Log) StartPhase(name models.PhaseName, iteration int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current != nil && l.current.Result == nil {
		l.closeCurrentLocked(&models.PhaseResult{Success: false, Reason: "phase superseded"})
	}

	phase := &models.Phase{
		Name:      name,
		Iteration: iteration,
		StartedAt: time.Now().UTC(),
		Steps:     []models.Step{},
		APICalls:  []models.APICall{},
	}

	l.session.Phases = append(l.session.Phases, phase)
	l.current = phase
}

// LogStep appends one logged action to the current phase.
func (l *Log) LogStep(description string, data map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	l.current.Steps = append(l.current.Steps, models.Step{
		At:          time.Now().UTC(),
		Description: description,
		Data:        data,
	})
}

// LogAPICall records one completion-service invocation. This is the sole
// place cost enters the session; the session totals are updated here.
func (l *Log) LogAPICall(purpose string, inputTokens, outputTokens int, estimatedCost float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	l.current.APICalls = append(l.current.APICalls, models.APICall{
		At:            time.Now().UTC(),
		Purpose:       purpose,
		InputTokens:   inputTokens,
		OutputTokens:  outputTokens,
		EstimatedCost: estimatedCost,
	})

	l.session.TotalAPICalls++
	l.session.TotalCost += estimatedCost
}

// EndPhase stamps the end time and freezes the result of the current phase.
func (l *Log) EndPhase(success bool, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return
	}

	l.closeCurrentLocked(&models.PhaseResult{Success: success, Reason: reason})
}

func (l *Log) closeCurrentLocked(result *models.PhaseResult) {
	now := time.Now().UTC()
	l.current.EndedAt = &now
	l.current.Result = result
	l.current = nil
}

// MarkFixed records the terminal Fixed(iteration) outcome.
func (l *Log) MarkFixed(iteration int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.session.Outcome = models.SessionOutcomeFixed
	l.session.FixedIteration = iteration
}

// MarkExhausted records the terminal Exhausted outcome; reason is empty for
// a plain iteration-budget exhaustion and carries the error otherwise.
func (l *Log) MarkExhausted(reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.session.Outcome = models.SessionOutcomeExhausted
	l.session.FailureReason = reason
}

// Snapshot returns a deep-enough copy of the session for readers. Phase
// records are shared but the fixer only appends through this log, so a
// snapshot taken after a terminal mark is stable.
func (l *Log) Snapshot() models.FixSession {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := *l.session
	snapshot.Phases = append([]*models.Phase{}, l.session.Phases...)

	return snapshot
}

// Save serializes the full session to durable storage keyed by session id.
// Overwrite semantics; safe to call repeatedly, including mid-failure.
func (l *Log) Save(ctx context.Context) error {
	l.mu.Lock()
	session := *l.session
	session.Phases = append([]*models.Phase{}, l.session.Phases...)
	l.mu.Unlock()

	return l.store.SaveSession(ctx, &session)
}
