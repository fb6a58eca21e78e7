package models

import "time"

// SessionOutcome is the lifecycle state of a fix session.
type SessionOutcome string

const (
	SessionOutcomeRunning   SessionOutcome = "running"
	SessionOutcomeFixed     SessionOutcome = "fixed"
	SessionOutcomeExhausted SessionOutcome = "exhausted"
)

// PhaseName identifies one of the four phases inside an iteration.
type PhaseName string

const (
	PhaseAnalyze PhaseName = "analyze"
	PhasePlan    PhaseName = "plan"
	PhaseExecute PhaseName = "execute"
	PhaseVerify  PhaseName = "verify"
)

// FixSession is one end-to-end remediation attempt for a single ErrorReport.
// Phases accumulate across all iterations; none is ever overwritten.
type FixSession struct {
	ID             string         `json:"id"`
	StartedAt      time.Time      `json:"started_at"`
	Report         ErrorReport    `json:"error_report"`
	Phases         []*Phase       `json:"phases"`
	Outcome        SessionOutcome `json:"outcome"`
	FixedIteration int            `json:"fixed_iteration,omitempty"`
	FailureReason  string         `json:"failure_reason,omitempty"`
	TotalAPICalls  int            `json:"total_api_calls"`
	TotalCost      float64        `json:"total_cost"`
}

// Phase is one analyze/plan/execute/verify span within an iteration.
type Phase struct {
	Name      PhaseName    `json:"name"`
	Iteration int          `json:"iteration"`
	StartedAt time.Time    `json:"started_at"`
	EndedAt   *time.Time   `json:"ended_at,omitempty"`
	Steps     []Step       `json:"steps"`
	APICalls  []APICall    `json:"api_calls"`
	Result    *PhaseResult `json:"result,omitempty"`
}

// PhaseResult is the frozen outcome of a finished phase.
type PhaseResult struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// Step is a single logged action: human-readable description plus a small
// structured payload.
type Step struct {
	At          time.Time      `json:"at"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// APICall records exactly one completion-service invocation.
type APICall struct {
	At            time.Time `json:"at"`
	Purpose       string    `json:"purpose"`
	InputTokens   int       `json:"input_tokens"`
	OutputTokens  int       `json:"output_tokens"`
	EstimatedCost float64   `json:"estimated_cost"`
}
