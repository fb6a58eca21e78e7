package fixer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/remedyhq/remedy/pkg/hosting"
	"github.com/remedyhq/remedy/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectForUpdate_DropsDerivedFields(t *testing.T) {
	t.Parallel()

	def := sampleDefinition(t)

	payload, err := ProjectForUpdate(def)
	require.NoError(t, err)

	for field := range payload {
		assert.True(t, updateAllowList[field], "unexpected field %q", field)
	}

	assert.Contains(t, payload, "name")
	assert.Contains(t, payload, "nodes")
	assert.Contains(t, payload, "connections")
	assert.Contains(t, payload, "settings")
	assert.Contains(t, payload, "staticData")

	assert.NotContains(t, payload, "id")
	assert.NotContains(t, payload, "versionId")
	assert.NotContains(t, payload, "tags")
	assert.NotContains(t, payload, "active")
}

// Idempotent passthrough: projecting an unmodified download keeps all
// allow-listed content intact, per-node opaque fields included.
func TestProjectForUpdate_UntouchedFieldsPassThrough(t *testing.T) {
	t.Parallel()

	def := sampleDefinition(t)

	payload, err := ProjectForUpdate(def)
	require.NoError(t, err)

	var original map[string]any
	require.NoError(t, json.Unmarshal([]byte(sampleWorkflowJSON), &original))

	for _, field := range []string{"name", "nodes", "connections", "settings", "staticData"} {
		assert.Equal(t, original[field], payload[field], "field %q must round-trip unchanged", field)
	}
}

func TestDeployer_SuccessAndFailure(t *testing.T) {
	t.Parallel()

	def := sampleDefinition(t)

	hostingFake := &fakeHosting{raw: sampleWorkflowJSON}
	deployer := NewDeployer(hostingFake)
	log := newTestLog(t)
	log.StartPhase(models.PhaseVerify, 1)

	require.NoError(t, deployer.Deploy(context.Background(), log, "wf-1", def))
	require.Len(t, hostingFake.updates, 1)

	rejecting := &fakeHosting{updateErrs: []error{&hosting.APIError{StatusCode: 422, Body: "settings invalid"}}}
	deployer = NewDeployer(rejecting)

	err := deployer.Deploy(context.Background(), log, "wf-1", def)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "settings invalid")
	assert.Len(t, rejecting.updates, 1, "no internal retry")
}

func TestDeployer_RefusesNilCandidate(t *testing.T) {
	t.Parallel()

	hostingFake := &fakeHosting{}
	deployer := NewDeployer(hostingFake)
	log := newTestLog(t)
	log.StartPhase(models.PhaseVerify, 1)

	err := deployer.Deploy(context.Background(), log, "wf-1", nil)
	require.Error(t, err)
	assert.Empty(t, hostingFake.updates)
}
