package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Black-And-White-Club/rally-league/app"
	"github.com/Black-And-White-Club/rally-league/app/modules/standings"
	standingsservice "github.com/Black-And-White-Club/rally-league/app/modules/standings/application"
	"github.com/Black-And-White-Club/rally-league/app/observability"
	"github.com/Black-And-White-Club/rally-league/config"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "league",
		Usage: "standings and rating engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"LEAGUE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			paramsCommand(),
			recalcCommand(),
			seasonCommand(),
			adjustCommand(),
			chartCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "consume match and admin events until interrupted",
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := observability.NewLogger(cfg.Observability.Environment, cfg.Observability.LogLevel)

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.NewApp(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			return application.Run(ctx)
		},
	}
}

// session is what one-shot admin commands run against.
type session struct {
	service standingsservice.Service
	close   func() error
}

// openSession connects to the configured database. Tests replace it.
var openSession = func(c *cli.Context) (*session, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	// stdout carries command output.
	logger := observability.NewLoggerTo(os.Stderr, cfg.Observability.Environment, "warn")

	db, err := app.OpenDB(c.Context, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}

	service, err := standings.NewService(c.Context, cfg, standings.Observability{
		Logger:  logger,
		Metrics: observability.NoOpMetrics{},
		Tracer:  otel.Tracer(observability.TracerName),
	}, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &session{service: service, close: db.Close}, nil
}

// withSession runs fn against a freshly opened service.
func withSession(c *cli.Context, fn func(svc standingsservice.Service) error) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(s.service)
}
