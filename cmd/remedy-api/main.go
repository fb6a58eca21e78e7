package main

import (
	"context"
	"os"

	"github.com/remedyhq/remedy/pkg/cmd"
	"github.com/remedyhq/remedy/pkg/fixer"
	"github.com/remedyhq/remedy/pkg/hosting"
	"github.com/remedyhq/remedy/pkg/llm"
	"github.com/remedyhq/remedy/pkg/log"
	"github.com/remedyhq/remedy/pkg/notify"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "remedy-api",
		Usage:                 "Receive workflow error reports and run automated fix sessions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:     "anthropic-api-key",
				Usage:    "API key for the completion service",
				Required: true,
				Sources:  cli.EnvVars("ANTHROPIC_API_KEY"),
			},
			&cli.StringFlag{
				Name:     "hosting-api-url",
				Usage:    "Base URL of the workflow hosting service",
				Required: true,
				Sources:  cli.EnvVars("HOSTING_API_URL"),
			},
			&cli.StringFlag{
				Name:     "hosting-api-key",
				Usage:    "API key for the workflow hosting service",
				Required: true,
				Sources:  cli.EnvVars("HOSTING_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "notify-webhook-url",
				Usage:   "Webhook URL for session outcome notifications",
				Sources: cli.EnvVars("NOTIFY_WEBHOOK_URL"),
			},
			&cli.IntFlag{
				Name:    "max-iterations",
				Usage:   "Maximum fix attempts per session",
				Value:   fixer.DefaultMaxIterations,
				Sources: cli.EnvVars("MAX_ITERATIONS"),
			},
			&cli.StringFlag{
				Name:    "analyze-model",
				Usage:   "Completion model used for error analysis",
				Sources: cli.EnvVars("ANALYZE_MODEL"),
			},
			&cli.StringFlag{
				Name:    "plan-model",
				Usage:   "Completion model used for fix planning",
				Sources: cli.EnvVars("PLAN_MODEL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Remedy API")

			persistence := cmd.NewPersistence(command.String("database-url"))
			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			llmClient, err := llm.NewAnthropicClient(command.String("anthropic-api-key"))
			if err != nil {
				return err
			}

			hostingClient, err := hosting.NewHTTPClient(
				command.String("hosting-api-url"),
				command.String("hosting-api-key"),
			)
			if err != nil {
				return err
			}

			notifier := notify.NewWebhookNotifier(command.String("notify-webhook-url"), logger)

			orchestrator := fixer.NewOrchestrator(
				fixer.Config{
					MaxIterations: command.Int("max-iterations"),
					AnalyzeModel:  command.String("analyze-model"),
					PlanModel:     command.String("plan-model"),
				},
				persistence,
				hostingClient,
				llmClient,
				notifier,
				nil,
				logger,
			)

			dispatcher := fixer.NewDispatcher(eventBus, orchestrator, logger)
			if err := dispatcher.Start(ctx); err != nil {
				return err
			}

			api := NewAPI(
				logger,
				persistence,
				notifier,
				eventBus,
			)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
