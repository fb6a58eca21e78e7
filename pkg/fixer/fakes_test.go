package fixer

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/remedyhq/remedy/pkg/hosting"
	"github.com/remedyhq/remedy/pkg/llm"
	"github.com/remedyhq/remedy/pkg/models"
)

// fakeLLM scripts completion responses. Analyzer and planner traffic is
// told apart by the system prompt.
type fakeLLM struct {
	mu sync.Mutex

	analyzeResponse string
	planResponses   []string
	completeErr     error

	analyzeCalls int
	planCalls    int
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.completeErr != nil {
		return nil, f.completeErr
	}

	usage := llm.Usage{InputTokens: 100, OutputTokens: 50}

	if req.System == analyzeSystemPrompt {
		f.analyzeCalls++

		return &llm.Response{Content: f.analyzeResponse, Model: "claude-3-5-haiku-latest", Usage: usage}, nil
	}

	f.planCalls++

	index := f.planCalls - 1
	if index >= len(f.planResponses) {
		index = len(f.planResponses) - 1
	}

	content := ""
	if index >= 0 {
		content = f.planResponses[index]
	}

	return &llm.Response{Content: content, Model: "claude-3-5-haiku-latest", Usage: usage}, nil
}

// fakeHosting serves a canned definition and scripts per-call update
// results.
type fakeHosting struct {
	mu sync.Mutex

	raw        string
	getErr     error
	updateErrs []error

	getCalls int
	updates  []map[string]any
}

func (f *fakeHosting) GetWorkflow(_ context.Context, _ string) (*hosting.DownloadedWorkflow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls++

	if f.getErr != nil {
		return nil, f.getErr
	}

	return &hosting.DownloadedWorkflow{Raw: json.RawMessage(f.raw)}, nil
}

func (f *fakeHosting) UpdateWorkflow(_ context.Context, _ string, payload map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updates = append(f.updates, payload)

	call := len(f.updates) - 1
	if call < len(f.updateErrs) {
		return f.updateErrs[call]
	}

	return nil
}

// fakeNotifier records terminal notifications.
type fakeNotifier struct {
	mu sync.Mutex

	fixed     []models.FixSession
	plans     []*models.FixPlan
	exhausted []models.FixSession
}

func (f *fakeNotifier) NotifyFixed(_ context.Context, session models.FixSession, plan *models.FixPlan) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fixed = append(f.fixed, session)
	f.plans = append(f.plans, plan)
}

func (f *fakeNotifier) NotifyExhausted(_ context.Context, session models.FixSession) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.exhausted = append(f.exhausted, session)
}

const sampleWorkflowJSON = `{
	"id": "wf-1",
	"name": "Lead sync",
	"active": true,
	"createdAt": "2026-08-01T10:00:00.000Z",
	"updatedAt": "2026-08-20T09:30:00.000Z",
	"versionId": "v7",
	"tags": [{"id": "t1", "name": "leads"}],
	"nodes": [
		{
			"id": "n1",
			"name": "Webhook",
			"type": "n8n-nodes-base.webhook",
			"typeVersion": 1,
			"position": [0, 0],
			"webhookId": "hook-1",
			"parameters": {"path": "lead-intake"}
		},
		{
			"id": "n2",
			"name": "HTTP Request",
			"type": "n8n-nodes-base.httpRequest",
			"typeVersion": 4,
			"position": [220, 0],
			"credentials": {"httpHeaderAuth": {"id": "c1"}},
			"parameters": {"url": "https://old.example.com/api", "options": {}}
		},
		{
			"id": "n3",
			"name": "Score Lead",
			"type": "n8n-nodes-base.code",
			"typeVersion": 2,
			"position": [440, 0],
			"parameters": {"jsCode": "return items;"}
		}
	],
	"connections": {"Webhook": {"main": [[{"node": "HTTP Request", "type": "main", "index": 0}]]}},
	"settings": {"executionOrder": "v1"},
	"staticData": {"lastSeen": 41}
}`

const sampleReportNode = "HTTP Request"

func sampleReport() models.ErrorReport {
	return models.ErrorReport{
		WorkflowID:   "wf-1",
		WorkflowName: "Lead sync",
		ExecutionID:  "exec-9",
		ErrorNode:    sampleReportNode,
		ErrorMessage: "connect ECONNREFUSED 10.0.0.5:443",
	}
}

const goodPlanJSON = `{
	"steps": [
		{
			"action": "modify_parameter",
			"target": "url",
			"description": "Point URL at the new API host",
			"newValue": "https://new.example.com/api"
		}
	],
	"confidence": "high"
}`
