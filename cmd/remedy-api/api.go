// Package main provides the Remedy API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/remedyhq/remedy/pkg/eventbus"
	"github.com/remedyhq/remedy/pkg/notify"
	"github.com/remedyhq/remedy/pkg/persistence"
	"github.com/remedyhq/remedy/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	notifier    notify.Notifier
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	notifier notify.Notifier,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		notifier:    notifier,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.persistence, a.notifier, a.eventBus, a.validate, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Remedy API")
	})

	app.Get("/health", handlers.HealthCheck)
	app.Get("/logs", handlers.ListLogs)
	app.Get("/logs/:id", handlers.GetLog)
	app.Post("/test-notify", handlers.TestNotify)
	app.Post("/auto-fix", handlers.AutoFix)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
