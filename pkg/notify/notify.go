// Package notify delivers terminal-state messages to a chat webhook.
// Delivery is fire-and-forget: failures are logged and swallowed, never
// surfaced to the caller.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/remedyhq/remedy/pkg/models"
)

const webhookTimeout = 10 * time.Second

// Notifier is the terminal-state notification sink.
type Notifier interface {
	NotifyFixed(ctx context.Context, session models.FixSession, plan *models.FixPlan)
	NotifyExhausted(ctx context.Context, session models.FixSession)
}

// WebhookNotifier posts formatted messages to a chat webhook URL.
type WebhookNotifier struct {
	webhookURL string
	logger     *slog.Logger
	httpClient *http.Client
}

// NewWebhookNotifier creates a notifier for the given webhook URL. An empty
// URL disables delivery; terminal states are then only logged.
func NewWebhookNotifier(webhookURL string, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		webhookURL: webhookURL,
		logger:     logger,
		httpClient: &http.Client{Timeout: webhookTimeout},
	}
}

// NotifyFixed reports a successful remediation with the applied plan steps
// and the session's aggregate cost.
func (n *WebhookNotifier) NotifyFixed(ctx context.Context, session models.FixSession, plan *models.FixPlan) {
	text := strings.Builder{}
	fmt.Fprintf(&text, "✅ Workflow %q fixed on iteration %d (session %s).\n",
		workflowLabel(session.Report), session.FixedIteration, session.ID)
	fmt.Fprintf(&text, "Error: %s\n", session.Report.ErrorMessage)

	if plan != nil && len(plan.Steps) > 0 {
		text.WriteString("Applied fix:\n")

		for _, description := range plan.Descriptions() {
			fmt.Fprintf(&text, "  • %s\n", description)
		}
	}

	fmt.Fprintf(&text, "API calls: %d, estimated cost: $%.4f", session.TotalAPICalls, session.TotalCost)

	n.post(ctx, text.String())
}

// NotifyExhausted reports that all iterations completed without a
// successful deploy.
func (n *WebhookNotifier) NotifyExhausted(ctx context.Context, session models.FixSession) {
	text := strings.Builder{}
	fmt.Fprintf(&text, "❌ Workflow %q could not be fixed automatically (session %s).\n",
		workflowLabel(session.Report), session.ID)
	fmt.Fprintf(&text, "Error: %s\n", session.Report.ErrorMessage)

	if session.FailureReason != "" {
		fmt.Fprintf(&text, "Session failure: %s\n", session.FailureReason)
	}

	fmt.Fprintf(&text, "A pre-session backup is on disk for manual restore.\n")
	fmt.Fprintf(&text, "API calls: %d, estimated cost: $%.4f", session.TotalAPICalls, session.TotalCost)

	n.post(ctx, text.String())
}

func workflowLabel(report models.ErrorReport) string {
	if report.WorkflowName != "" {
		return report.WorkflowName
	}

	return report.WorkflowID
}

func (n *WebhookNotifier) post(ctx context.Context, text string) {
	if n.webhookURL == "" {
		n.logger.InfoContext(ctx, "Notification webhook not configured, logging only", "text", text)

		return
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to marshal notification payload", "error", err)

		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to create notification request", "error", err)

		return
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to deliver notification", "error", err)

		return
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		n.logger.ErrorContext(ctx, "Notification webhook rejected message", "status", resp.StatusCode)
	}
}
