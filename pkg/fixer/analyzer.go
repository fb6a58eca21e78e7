package fixer

import (
	"context"
	"fmt"
	"strings"

	"github.com/remedyhq/remedy/pkg/llm"
	"github.com/remedyhq/remedy/pkg/models"
	"github.com/remedyhq/remedy/pkg/session"
)

const analyzeSystemPrompt = "You are a workflow automation engineer diagnosing a failed workflow execution. " +
	"Answer with the likely root cause in 2-3 sentences. No preamble."

// Analyzer runs the cheap triage call: locate the failing node and propose
// a cause. It never touches the workflow document.
type Analyzer struct {
	client llm.Client
	model  string
}

// NewAnalyzer creates an analyzer using the given completion model.
func NewAnalyzer(client llm.Client, model string) *Analyzer {
	return &Analyzer{client: client, model: model}
}

// Analyze looks up the reported node and asks the completion service for a
// likely cause. A missing node yields an Analysis with a nil TargetNode and
// no completion call; failure is data, not an exception. Exactly one
// APICall is logged per invocation that reaches the service.
func (a *Analyzer) Analyze(ctx context.Context, log *session.Log, report models.ErrorReport, def *models.WorkflowDefinition) (*models.Analysis, error) {
	node := def.NodeByName(report.ErrorNode)
	if node == nil {
		log.LogStep("reported node not found in workflow definition", map[string]any{
			"error_node": report.ErrorNode,
		})

		return &models.Analysis{ErrorMessage: report.ErrorMessage}, nil
	}

	log.LogStep("located failing node", map[string]any{
		"node_name": node.Name,
		"node_type": node.Type,
	})

	// Only the error message, node name and node type go into the prompt.
	// Never the parameter tree: triage has a low token budget.
	prompt := strings.Builder{}
	fmt.Fprintf(&prompt, "A workflow execution failed at node %q (type %s).\n", node.Name, node.Type)
	fmt.Fprintf(&prompt, "Error message:\n%s\n", report.ErrorMessage)
	prompt.WriteString("What is the most likely cause?")

	resp, err := a.client.Complete(ctx, llm.Request{
		System:    analyzeSystemPrompt,
		Prompt:    prompt.String(),
		Model:     a.model,
		MaxTokens: analyzeMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis completion failed: %w", err)
	}

	log.LogAPICall("analyze error", resp.Usage.InputTokens, resp.Usage.OutputTokens,
		llm.EstimateCost(resp.Model, resp.Usage))

	cause := strings.TrimSpace(resp.Content)
	log.LogStep("analysis produced likely cause", map[string]any{"likely_cause": cause})

	return &models.Analysis{
		TargetNode:   node,
		ErrorMessage: report.ErrorMessage,
		LikelyCause:  cause,
	}, nil
}
