// Package models defines the core domain models for automated workflow remediation.
package models

// ErrorReport describes one failed hosted-workflow execution. It is the
// input to a fix session and is immutable once received.
type ErrorReport struct {
	WorkflowID   string `json:"workflow_id"   validate:"required"`
	WorkflowName string `json:"workflow_name"`
	ExecutionID  string `json:"execution_id"`
	ErrorNode    string `json:"error_node"`
	ErrorMessage string `json:"error_message" validate:"required"`
	ErrorStack   string `json:"error_stack,omitempty"`
}
