// Package events defines event types for the fix-session lifecycle.
package events

import (
	"time"

	"github.com/remedyhq/remedy/pkg/models"
)

type EventType string

// Topic carries all fix lifecycle events.
const Topic = "remedy.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	FixRequestedEvent EventType = "fix.requested"
	FixCompletedEvent EventType = "fix.completed"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
}

// FixRequested is published by the intake surface when an error report is
// accepted; the dispatcher picks it up and runs a session.
type FixRequested struct {
	BaseEvent

	Report models.ErrorReport `json:"report"`
}

func (f FixRequested) GetType() EventType {
	return FixRequestedEvent
}

// FixCompleted is published when a session reaches a terminal state.
type FixCompleted struct {
	BaseEvent

	SessionID      string                `json:"session_id"`
	Outcome        models.SessionOutcome `json:"outcome"`
	FixedIteration int                   `json:"fixed_iteration,omitempty"`
	TotalCost      float64               `json:"total_cost"`
}

func (f FixCompleted) GetType() EventType {
	return FixCompletedEvent
}
