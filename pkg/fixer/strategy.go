package fixer

import (
	"fmt"
	"strings"

	"github.com/remedyhq/remedy/pkg/models"
)

// RetryStrategy decides what a failed iteration contributes to the next
// one. The orchestrator records every failure through it and feeds its
// PromptContext into the planner, so carrying prior mistakes forward is a
// strategy choice rather than a loop rewrite.
type RetryStrategy interface {
	Name() string
	RecordFailure(iteration int, plan *models.FixPlan, reason string)
	PromptContext() string
}

// FreshAnalysisStrategy is the default: each iteration re-analyzes from
// scratch and prior failed plans are deliberately discarded rather than fed
// back to the completion service.
type FreshAnalysisStrategy struct{}

func (FreshAnalysisStrategy) Name() string { return "fresh_analysis" }

func (FreshAnalysisStrategy) RecordFailure(int, *models.FixPlan, string) {}

func (FreshAnalysisStrategy) PromptContext() string { return "" }

// CarryFailuresStrategy passes earlier failed attempts to the planner so it
// can avoid repeating them. Not the default; deploy failures often have
// causes outside the plan itself.
type CarryFailuresStrategy struct {
	failures []string
}

func (s *CarryFailuresStrategy) Name() string { return "carry_failures" }

func (s *CarryFailuresStrategy) RecordFailure(iteration int, plan *models.FixPlan, reason string) {
	summary := fmt.Sprintf("iteration %d failed (%s)", iteration, reason)

	if plan != nil {
		descriptions := plan.Descriptions()
		if len(descriptions) > 0 {
			summary += ": " + strings.Join(descriptions, "; ")
		}
	}

	s.failures = append(s.failures, summary)
}

func (s *CarryFailuresStrategy) PromptContext() string {
	if len(s.failures) == 0 {
		return ""
	}

	return "Earlier attempts that did NOT fix the problem:\n- " + strings.Join(s.failures, "\n- ")
}
