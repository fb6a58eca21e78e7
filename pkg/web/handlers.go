// Package web provides the HTTP intake surface: error-report acceptance,
// session-log retrieval and a notification self-test.
package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/remedyhq/remedy/pkg/eventbus"
	"github.com/remedyhq/remedy/pkg/events"
	"github.com/remedyhq/remedy/pkg/models"
	"github.com/remedyhq/remedy/pkg/notify"
	"github.com/remedyhq/remedy/pkg/persistence"
)

const defaultLogListLimit = 20

type APIHandlers struct {
	store     persistence.Persistence
	notifier  notify.Notifier
	eventBus  eventbus.EventBus
	validator *validator.Validate
	logger    *slog.Logger
}

func NewAPIHandlers(
	store persistence.Persistence,
	notifier notify.Notifier,
	eventBus eventbus.EventBus,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		store:     store,
		notifier:  notifier,
		eventBus:  eventBus,
		validator: validator,
		logger:    logger,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	httpStatus := http.StatusOK

	detail := ""
	if err := h.store.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
		detail = err.Error()
	}

	response := fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if detail != "" {
		response["detail"] = detail
	}

	return c.Status(httpStatus).JSON(response)
}

// ListLogs returns the most recently written session-log identifiers.
func (h *APIHandlers) ListLogs(c fiber.Ctx) error {
	limit := defaultLogListLimit

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			return badRequest(c, "Invalid limit parameter")
		}

		limit = parsed
	}

	ids, err := h.store.ListSessionIDs(c.Context(), limit)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": ids})
}

// GetLog returns one full persisted session summary.
func (h *APIHandlers) GetLog(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	session, err := h.store.SessionByID(c.Context(), id)
	if err != nil {
		if persistence.IsSessionNotFound(err) {
			return notFound(c, "Session not found")
		}

		return internalError(c, err)
	}

	return c.JSON(session)
}

// TestNotify pushes a synthetic success notification through the sink so
// webhook wiring can be checked without breaking a workflow.
func (h *APIHandlers) TestNotify(c fiber.Ctx) error {
	session := models.FixSession{
		ID:        "test-" + uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Report: models.ErrorReport{
			WorkflowID:   "test-workflow",
			WorkflowName: "Notification self-test",
			ErrorNode:    "HTTP Request",
			ErrorMessage: "synthetic error (self-test)",
		},
		Outcome:        models.SessionOutcomeFixed,
		FixedIteration: 1,
		TotalAPICalls:  2,
		TotalCost:      0.0042,
	}

	plan := &models.FixPlan{
		Steps: []models.FixStep{
			{Action: models.ActionModifyParameter, Target: "url", Description: "Self-test: no change was made"},
		},
		Confidence: models.ConfidenceHigh,
	}

	h.notifier.NotifyFixed(c.Context(), session, plan)

	return c.JSON(fiber.Map{"status": "sent"})
}

// AutoFix accepts an error report, acknowledges immediately with 202 and
// hands the session to the dispatcher through the event bus. The caller
// never waits on, or hears about, the session outcome.
func (h *APIHandlers) AutoFix(c fiber.Ctx) error {
	report := models.ErrorReport{}
	if err := c.Bind().Body(&report); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(report); err != nil {
		return badRequest(c, "Invalid error report: "+err.Error())
	}

	event := events.FixRequested{
		BaseEvent: events.BaseEvent{
			ID:         h.eventBus.GenerateID(),
			Type:       events.FixRequestedEvent,
			Timestamp:  time.Now().UTC(),
			WorkflowID: report.WorkflowID,
		},
		Report: report,
	}

	if err := h.eventBus.Publish(c.Context(), report.WorkflowID, event); err != nil {
		h.logger.ErrorContext(c.Context(), "Failed to publish fix request", "error", err,
			"workflow_id", report.WorkflowID)

		return internalError(c, err)
	}

	h.logger.InfoContext(c.Context(), "Fix request accepted",
		"workflow_id", report.WorkflowID, "error_node", report.ErrorNode)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}
