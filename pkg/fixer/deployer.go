package fixer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/remedyhq/remedy/pkg/hosting"
	"github.com/remedyhq/remedy/pkg/models"
	"github.com/remedyhq/remedy/pkg/session"
)

// updateAllowList names the top-level fields the hosting API accepts on
// write. Everything else (ids, timestamps, version markers, activation
// state, tags) is derived or read-only and gets rejected if present.
var updateAllowList = map[string]bool{
	"name":        true,
	"nodes":       true,
	"connections": true,
	"settings":    true,
	"staticData":  true,
}

// Deployer projects a candidate definition to the API-accepted shape and
// attempts to publish it. No internal retry: retrying is the orchestrator's
// job, and a 2xx here is the sole signal a session is fixed.
type Deployer struct {
	hosting hosting.Client
}

// NewDeployer creates a deployer over the hosting client.
func NewDeployer(client hosting.Client) *Deployer {
	return &Deployer{hosting: client}
}

// Deploy publishes the allow-listed projection of candidate. The returned
// error carries the hosting API's response verbatim for the phase's failure
// reason.
func (d *Deployer) Deploy(ctx context.Context, log *session.Log, workflowID string, candidate *models.WorkflowDefinition) error {
	if candidate == nil {
		return fmt.Errorf("no candidate definition to deploy")
	}

	payload, err := ProjectForUpdate(candidate)
	if err != nil {
		return fmt.Errorf("failed to project candidate for update: %w", err)
	}

	fields := make([]string, 0, len(payload))
	for field := range payload {
		fields = append(fields, field)
	}

	sort.Strings(fields)

	log.LogStep("publishing candidate definition", map[string]any{
		"workflow_id": workflowID,
		"fields":      fields,
	})

	if err := d.hosting.UpdateWorkflow(ctx, workflowID, payload); err != nil {
		return err
	}

	log.LogStep("candidate definition accepted by hosting api", nil)

	return nil
}

// ProjectForUpdate reduces a definition to the allow-listed update shape.
// Applied to an unmodified download it must stay accepted by the hosting
// API: untouched fields pass through unchanged.
func ProjectForUpdate(def *models.WorkflowDefinition) (map[string]any, error) {
	data, err := json.Marshal(def)
	if err != nil {
		return nil, err
	}

	full := make(map[string]any)
	if err := json.Unmarshal(data, &full); err != nil {
		return nil, err
	}

	projected := make(map[string]any, len(updateAllowList))

	for field, value := range full {
		if updateAllowList[field] {
			projected[field] = value
		}
	}

	return projected, nil
}
