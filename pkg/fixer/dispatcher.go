package fixer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/remedyhq/remedy/pkg/eventbus"
	"github.com/remedyhq/remedy/pkg/events"
)

// Dispatcher subscribes to fix-request events and runs one orchestrator
// session per event, so the intake surface can acknowledge immediately and
// never waits on a session.
type Dispatcher struct {
	bus          eventbus.EventBus
	orchestrator *Orchestrator
	logger       *slog.Logger
}

// NewDispatcher creates a dispatcher over the event bus.
func NewDispatcher(bus eventbus.EventBus, orchestrator *Orchestrator, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		bus:          bus,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Start registers the handler and begins consuming. Cancelling ctx stops
// consumption and aborts in-flight sessions at their next suspension point.
func (d *Dispatcher) Start(ctx context.Context) error {
	if err := d.bus.Handle(events.FixRequestedEvent, d.handleFixRequested); err != nil {
		return fmt.Errorf("failed to register fix request handler: %w", err)
	}

	return d.bus.Subscribe(ctx)
}

func (d *Dispatcher) handleFixRequested(ctx context.Context, event any) error {
	request, ok := event.(*events.FixRequested)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}

	// Sessions run concurrently; the orchestrator serializes per workflow id.
	go func() {
		result := d.orchestrator.Run(ctx, request.Report)

		completed := events.FixCompleted{
			BaseEvent: events.BaseEvent{
				ID:         d.bus.GenerateID(),
				Type:       events.FixCompletedEvent,
				Timestamp:  time.Now().UTC(),
				WorkflowID: request.Report.WorkflowID,
			},
			SessionID:      result.ID,
			Outcome:        result.Outcome,
			FixedIteration: result.FixedIteration,
			TotalCost:      result.TotalCost,
		}

		if err := d.bus.Publish(context.WithoutCancel(ctx), request.Report.WorkflowID, completed); err != nil {
			d.logger.ErrorContext(ctx, "Failed to publish fix completion", "error", err, "session_id", result.ID)
		}
	}()

	return nil
}
