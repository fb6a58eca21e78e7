package fixer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/remedyhq/remedy/pkg/llm"
	"github.com/remedyhq/remedy/pkg/models"
	"github.com/remedyhq/remedy/pkg/session"
)

const planSystemPrompt = "You are a workflow automation engineer writing a fix for a failing workflow node. " +
	"Respond with a single strict JSON object and nothing else:\n" +
	`{"steps": [{"action": "modify_parameter|change_expression|add_null_check", ` +
	`"target": "dot.separated.path", "description": "...", "newValue": ...}], ` +
	`"confidence": "high|medium|low"}`

// Planner turns an analysis into a structured, stepwise fix plan. It only
// proposes; nothing is mutated here.
type Planner struct {
	client llm.Client
	model  string
}

// NewPlanner creates a planner using the given completion model.
func NewPlanner(client llm.Client, model string) *Planner {
	return &Planner{client: client, model: model}
}

// Plan requests a fix plan for the analyzed node. A nil TargetNode returns
// nil immediately with no completion call: a plan cannot be built for a
// node that cannot be found. Unparseable responses and empty step lists
// also return nil; the caller marks the phase failed. Exactly one APICall
// is logged per successful plan. priorContext carries whatever the retry
// strategy wants the planner to know about earlier iterations.
func (p *Planner) Plan(ctx context.Context, log *session.Log, analysis *models.Analysis, priorContext string) (*models.FixPlan, error) {
	if analysis == nil || analysis.TargetNode == nil {
		return nil, nil
	}

	node := analysis.TargetNode

	parameters, err := json.Marshal(node.Parameters)
	if err != nil {
		log.LogStep("failed to serialize node parameters", map[string]any{"error": err.Error()})

		return nil, nil
	}

	serialized := string(parameters)
	if len(serialized) > paramCharBudget {
		serialized = serialized[:paramCharBudget]
		log.LogStep("node parameters truncated for prompt", map[string]any{
			"budget": paramCharBudget,
		})
	}

	prompt := strings.Builder{}
	fmt.Fprintf(&prompt, "Node %q (type %s) fails with:\n%s\n\n", node.Name, node.Type, analysis.ErrorMessage)
	fmt.Fprintf(&prompt, "Likely cause:\n%s\n\n", analysis.LikelyCause)
	fmt.Fprintf(&prompt, "Current node parameters (JSON, possibly truncated):\n%s\n", serialized)

	if priorContext != "" {
		fmt.Fprintf(&prompt, "\n%s\n", priorContext)
	}

	prompt.WriteString("\nProduce the fix plan JSON.")

	resp, err := p.client.Complete(ctx, llm.Request{
		System:    planSystemPrompt,
		Prompt:    prompt.String(),
		Model:     p.model,
		MaxTokens: planMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("plan completion failed: %w", err)
	}

	log.LogAPICall("generate fix plan", resp.Usage.InputTokens, resp.Usage.OutputTokens,
		llm.EstimateCost(resp.Model, resp.Usage))

	raw, ok := extractJSONObject(resp.Content)
	if !ok {
		log.LogStep("plan response had no parseable JSON object", map[string]any{
			"response_prefix": truncate(resp.Content, 200),
		})

		return nil, nil
	}

	plan := &models.FixPlan{}
	if err := json.Unmarshal([]byte(raw), plan); err != nil {
		log.LogStep("plan JSON did not match the expected shape", map[string]any{"error": err.Error()})

		return nil, nil
	}

	if len(plan.Steps) == 0 {
		log.LogStep("plan contained no steps", nil)

		return nil, nil
	}

	if plan.Confidence == "" {
		plan.Confidence = models.ConfidenceMedium
	}

	log.LogStep("fix plan generated", map[string]any{
		"steps":      len(plan.Steps),
		"confidence": string(plan.Confidence),
	})

	return plan, nil
}

// extractJSONObject scans for the first balanced {...} substring, honoring
// JSON string literals and escapes. Model output often wraps the object in
// prose or code fences.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}

			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	return s[:limit]
}
