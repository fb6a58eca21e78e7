package models

import (
	"fmt"
	"time"
)

// Backup is an immutable pre-session snapshot of a WorkflowDefinition,
// written once per session and never consumed automatically. It exists so a
// human can restore pre-session state by hand.
type Backup struct {
	Key        string              `json:"key"`
	WorkflowID string              `json:"workflow_id"`
	TakenAt    time.Time           `json:"taken_at"`
	Definition *WorkflowDefinition `json:"definition"`
}

// BackupKey derives the storage key for a backup from the workflow id and
// the session start time.
func BackupKey(workflowID string, startedAt time.Time) string {
	return fmt.Sprintf("%s-%d", workflowID, startedAt.Unix())
}
