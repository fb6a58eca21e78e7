package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/remedyhq/remedy/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSession() models.FixSession {
	return models.FixSession{
		ID: "session-1",
		Report: models.ErrorReport{
			WorkflowID:   "wf-1",
			WorkflowName: "Lead sync",
			ErrorMessage: "connection refused",
		},
		Outcome:        models.SessionOutcomeFixed,
		FixedIteration: 2,
		TotalAPICalls:  4,
		TotalCost:      0.0312,
	}
}

func TestWebhookNotifier_NotifyFixed(t *testing.T) {
	t.Parallel()

	var payload map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, slog.Default())
	notifier.NotifyFixed(context.Background(), fixedSession(), &models.FixPlan{
		Steps: []models.FixStep{
			{Action: models.ActionModifyParameter, Target: "url", Description: "Point URL at the new API host"},
		},
	})

	require.Contains(t, payload, "text")
	assert.Contains(t, payload["text"], "Lead sync")
	assert.Contains(t, payload["text"], "iteration 2")
	assert.Contains(t, payload["text"], "Point URL at the new API host")
	assert.Contains(t, payload["text"], "$0.0312")
}

func TestWebhookNotifier_NotifyExhaustedCarriesFailureReason(t *testing.T) {
	t.Parallel()

	var payload map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
	}))
	defer server.Close()

	session := fixedSession()
	session.Outcome = models.SessionOutcomeExhausted
	session.FailureReason = "failed to download workflow: timeout"

	notifier := NewWebhookNotifier(server.URL, slog.Default())
	notifier.NotifyExhausted(context.Background(), session)

	assert.Contains(t, payload["text"], "could not be fixed")
	assert.Contains(t, payload["text"], "failed to download workflow: timeout")
	assert.Contains(t, payload["text"], "manual restore")
}

func TestWebhookNotifier_DeliveryFailuresAreSwallowed(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	server.Close() // transport error too

	notifier := NewWebhookNotifier(server.URL, slog.Default())

	// Must not panic or return anything; failures stay here.
	notifier.NotifyExhausted(context.Background(), fixedSession())
}

func TestWebhookNotifier_EmptyURLLogsOnly(t *testing.T) {
	t.Parallel()

	notifier := NewWebhookNotifier("", slog.Default())
	notifier.NotifyFixed(context.Background(), fixedSession(), nil)
}
