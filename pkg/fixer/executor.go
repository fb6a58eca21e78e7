package fixer

import (
	"strings"

	"github.com/remedyhq/remedy/pkg/dotpath"
	"github.com/remedyhq/remedy/pkg/models"
	"github.com/remedyhq/remedy/pkg/session"
)

// codeParameterKey is where code-executing node types keep their body.
const codeParameterKey = "jsCode"

// Executor applies a fix plan to a clone of the workflow definition. It is
// pure and local: no network calls, and the input document is never
// mutated.
type Executor struct{}

// NewExecutor creates an executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Apply produces a modified deep copy of def with the plan's steps applied
// to the target node. It returns nil when the plan is empty or the node
// cannot be located in the copy. Individual step failures are logged and do
// not abort the remaining steps: partial application is reported through
// logged steps, not a hard failure.
func (e *Executor) Apply(log *session.Log, def *models.WorkflowDefinition, analysis *models.Analysis, plan *models.FixPlan) (*models.WorkflowDefinition, error) {
	if plan == nil || len(plan.Steps) == 0 {
		log.LogStep("no plan steps to apply", nil)

		return nil, nil
	}

	if analysis == nil || analysis.TargetNode == nil {
		log.LogStep("no target node to apply plan against", nil)

		return nil, nil
	}

	candidate, err := def.Clone()
	if err != nil {
		return nil, err
	}

	node := candidate.NodeByName(analysis.TargetNode.Name)
	if node == nil {
		log.LogStep("target node missing from cloned definition", map[string]any{
			"node_name": analysis.TargetNode.Name,
		})

		return nil, nil
	}

	if node.Parameters == nil {
		node.Parameters = make(map[string]any)
	}

	applied := 0

	for i, step := range plan.Steps {
		if e.applyStep(log, node, i, step) {
			applied++
		}
	}

	log.LogStep("plan application finished", map[string]any{
		"steps_applied": applied,
		"steps_total":   len(plan.Steps),
	})

	return candidate, nil
}

// applyStep runs one fix step; returns whether it changed the node.
func (e *Executor) applyStep(log *session.Log, node *models.WorkflowNode, index int, step models.FixStep) bool {
	stepData := map[string]any{
		"index":  index,
		"action": string(step.Action),
		"target": step.Target,
	}

	switch step.Action {
	case models.ActionModifyParameter, models.ActionChangeExpression:
		if err := dotpath.Set(node.Parameters, step.Target, step.NewValue); err != nil {
			stepData["error"] = err.Error()
			log.LogStep("fix step failed", stepData)

			return false
		}

		log.LogStep("applied "+string(step.Action), stepData)

		return true

	case models.ActionAddNullCheck:
		// Code-executing nodes get their whole body replaced; anything else
		// degrades to a path write at the step's target.
		if isCodeNode(node.Type) {
			node.Parameters[codeParameterKey] = step.NewValue
			log.LogStep("replaced code body with null-checked version", stepData)

			return true
		}

		if err := dotpath.Set(node.Parameters, step.Target, step.NewValue); err != nil {
			stepData["error"] = err.Error()
			log.LogStep("fix step failed", stepData)

			return false
		}

		log.LogStep("applied add_null_check as parameter write", stepData)

		return true

	default:
		log.LogStep("unknown plan action, skipped", stepData)

		return false
	}
}

func isCodeNode(nodeType string) bool {
	return strings.Contains(strings.ToLower(nodeType), "code")
}
