package fixer

import (
	"context"
	"strings"
	"testing"

	"github.com/remedyhq/remedy/pkg/models"
	"github.com/remedyhq/remedy/pkg/persistence/file"
	"github.com/remedyhq/remedy/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) *session.Log {
	t.Helper()

	return session.New(file.NewPersistence(t.TempDir()), sampleReport())
}

func testAnalysis() *models.Analysis {
	return &models.Analysis{
		TargetNode: &models.WorkflowNode{
			Name:       "HTTP Request",
			Type:       "n8n-nodes-base.httpRequest",
			Parameters: map[string]any{"url": "https://old.example.com/api"},
		},
		ErrorMessage: "connect ECONNREFUSED",
		LikelyCause:  "The URL points at a dead host.",
	}
}

func TestPlanner_NilTargetSkipsCompletion(t *testing.T) {
	t.Parallel()

	llmFake := &fakeLLM{}
	planner := NewPlanner(llmFake, "")
	log := newTestLog(t)
	log.StartPhase(models.PhasePlan, 1)

	plan, err := planner.Plan(context.Background(), log, &models.Analysis{}, "")
	require.NoError(t, err)
	assert.Nil(t, plan)
	assert.Zero(t, llmFake.planCalls, "a plan cannot be built for a node that cannot be found")

	plan, err = planner.Plan(context.Background(), log, nil, "")
	require.NoError(t, err)
	assert.Nil(t, plan)
}

func TestPlanner_ParsesWrappedJSON(t *testing.T) {
	t.Parallel()

	llmFake := &fakeLLM{planResponses: []string{
		"Here is the plan:\n```json\n" + goodPlanJSON + "\n```\nGood luck!",
	}}
	planner := NewPlanner(llmFake, "")
	log := newTestLog(t)
	log.StartPhase(models.PhasePlan, 1)

	plan, err := planner.Plan(context.Background(), log, testAnalysis(), "")
	require.NoError(t, err)
	require.NotNil(t, plan)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, models.ActionModifyParameter, plan.Steps[0].Action)
	assert.Equal(t, "url", plan.Steps[0].Target)
	assert.Equal(t, models.ConfidenceHigh, plan.Confidence)

	snapshot := log.Snapshot()
	assert.Equal(t, 1, snapshot.TotalAPICalls, "exactly one APICall per successful plan")
}

func TestPlanner_MalformedResponseReturnsNil(t *testing.T) {
	t.Parallel()

	for _, response := range []string{
		"I would change the URL parameter to the right host.",
		`{"steps": [`,
		`{"steps": "not-an-array"}`,
	} {
		llmFake := &fakeLLM{planResponses: []string{response}}
		planner := NewPlanner(llmFake, "")
		log := newTestLog(t)
		log.StartPhase(models.PhasePlan, 1)

		plan, err := planner.Plan(context.Background(), log, testAnalysis(), "")
		require.NoError(t, err)
		assert.Nil(t, plan, "response %q must not produce a plan", response)
	}
}

func TestPlanner_EmptyStepsReturnsNil(t *testing.T) {
	t.Parallel()

	llmFake := &fakeLLM{planResponses: []string{`{"steps": [], "confidence": "high"}`}}
	planner := NewPlanner(llmFake, "")
	log := newTestLog(t)
	log.StartPhase(models.PhasePlan, 1)

	plan, err := planner.Plan(context.Background(), log, testAnalysis(), "")
	require.NoError(t, err)
	assert.Nil(t, plan)
	assert.Equal(t, 1, log.Snapshot().TotalAPICalls, "the spent call is still recorded")
}

func TestPlanner_DefaultsConfidence(t *testing.T) {
	t.Parallel()

	llmFake := &fakeLLM{planResponses: []string{
		`{"steps": [{"action": "modify_parameter", "target": "url", "description": "d", "newValue": "v"}]}`,
	}}
	planner := NewPlanner(llmFake, "")
	log := newTestLog(t)
	log.StartPhase(models.PhasePlan, 1)

	plan, err := planner.Plan(context.Background(), log, testAnalysis(), "")
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, models.ConfidenceMedium, plan.Confidence)
}

func TestPlanner_TruncatesLargeParameterTrees(t *testing.T) {
	t.Parallel()

	analysis := testAnalysis()
	analysis.TargetNode.Parameters = map[string]any{
		"blob": strings.Repeat("x", paramCharBudget*2),
	}

	llmFake := &fakeLLM{planResponses: []string{goodPlanJSON}}
	planner := NewPlanner(llmFake, "")
	log := newTestLog(t)
	log.StartPhase(models.PhasePlan, 1)

	_, err := planner.Plan(context.Background(), log, analysis, "")
	require.NoError(t, err)

	truncated := false

	for _, phase := range log.Snapshot().Phases {
		for _, step := range phase.Steps {
			if step.Description == "node parameters truncated for prompt" {
				truncated = true
			}
		}
	}

	assert.True(t, truncated)
}

func TestExtractJSONObject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, true},
		{"prose around", `plan: {"a": 1} done`, `{"a": 1}`, true},
		{"nested", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`, true},
		{"braces inside strings", `{"a": "close } brace"}`, `{"a": "close } brace"}`, true},
		{"escaped quotes", `{"a": "quote \" and } brace"}`, `{"a": "quote \" and } brace"}`, true},
		{"first of two", `{"a": 1} {"b": 2}`, `{"a": 1}`, true},
		{"unterminated", `{"a": 1`, "", false},
		{"no object", `nothing here`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := extractJSONObject(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
