package models

// Analysis is the analyzer's triage verdict. TargetNode is nil when the
// reported node cannot be located in the definition; that is data, not an
// error.
type Analysis struct {
	TargetNode   *WorkflowNode `json:"target_node,omitempty"`
	ErrorMessage string        `json:"error_message"`
	LikelyCause  string        `json:"likely_cause"`
}

// FixAction names one mutation kind in a fix plan. The vocabulary is open:
// plans are model-generated and may carry values outside the documented
// three, which the executor logs and skips.
type FixAction string

const (
	ActionModifyParameter  FixAction = "modify_parameter"
	ActionChangeExpression FixAction = "change_expression"
	ActionAddNullCheck     FixAction = "add_null_check"
)

// PlanConfidence is the planner's self-reported confidence.
type PlanConfidence string

const (
	ConfidenceHigh   PlanConfidence = "high"
	ConfidenceMedium PlanConfidence = "medium"
	ConfidenceLow    PlanConfidence = "low"
)

// FixPlan is a structured, stepwise proposal for mutating a node.
type FixPlan struct {
	Steps      []FixStep      `json:"steps"`
	Confidence PlanConfidence `json:"confidence"`
}

// FixStep is one mutation: an action applied at a dot-separated path inside
// the target node.
type FixStep struct {
	Action      FixAction `json:"action"`
	Target      string    `json:"target"`
	Description string    `json:"description"`
	NewValue    any       `json:"newValue"`
}

// Descriptions collects the human-readable step descriptions, used by the
// success notification.
func (p *FixPlan) Descriptions() []string {
	descriptions := make([]string, 0, len(p.Steps))
	for _, step := range p.Steps {
		descriptions = append(descriptions, step.Description)
	}

	return descriptions
}
