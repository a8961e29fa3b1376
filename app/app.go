// Package app wires the league process: storage, messaging, the standings
// module and the ops server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Black-And-White-Club/rally-league/app/eventbus"
	"github.com/Black-And-White-Club/rally-league/app/modules/standings"
	"github.com/Black-And-White-Club/rally-league/app/observability"
	"github.com/Black-And-White-Club/rally-league/app/observability/attr"
	"github.com/Black-And-White-Club/rally-league/app/ops"
	"github.com/Black-And-White-Club/rally-league/config"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/uptrace/bun"
)

const shutdownTimeout = 30 * time.Second

// App holds every long-lived component of the process.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	DB        *bun.DB
	EventBus  eventbus.EventBus
	Router    *message.Router
	Standings *standings.Module
	Ops       *ops.Server

	shutdownTracing func(context.Context) error
	wg              sync.WaitGroup
}

// NewApp initializes the application with the necessary services and configuration.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = app.release(context.Background())
		}
	}()

	tracer, shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.Environment)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.shutdownTracing = shutdownTracing

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewPrometheusMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	app.DB, err = OpenDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.NATS.URL == "" {
		logger.WarnContext(ctx, "NATS_URL not set; using in-memory event bus")
		app.EventBus = eventbus.NewInMemoryEventBus(logger)
	} else {
		app.EventBus, err = eventbus.NewNATSEventBus(ctx, cfg.NATS.URL, cfg.NATS.QueueGroup, logger)
		if err != nil {
			return nil, err
		}
		if err := eventbus.InitializeStreams(ctx, app.EventBus); err != nil {
			return nil, err
		}
	}

	app.Router, err = message.NewRouter(message.RouterConfig{CloseTimeout: shutdownTimeout}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create message router: %w", err)
	}

	app.Standings, err = standings.NewStandingsModule(ctx, cfg, standings.Observability{
		Logger:   logger,
		Metrics:  metrics,
		Tracer:   tracer,
		Registry: registry,
	}, app.DB, app.EventBus, app.Router)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize standings module: %w", err)
	}

	if cfg.Observability.MetricsAddress != "" {
		app.Ops = ops.NewServer(cfg.Observability.MetricsAddress, logger, registry, map[string]ops.CheckFunc{
			"postgres": app.DB.PingContext,
			"queue":    app.Standings.HealthCheck,
			"router": func(context.Context) error {
				if !app.Router.IsRunning() {
					return errors.New("message router not running")
				}
				return nil
			},
		})
	}

	ok = true
	return app, nil
}

// Run serves until ctx is cancelled or a component fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		if err := a.Router.Run(ctx); err != nil {
			errCh <- fmt.Errorf("message router: %w", err)
		}
	}()

	select {
	case <-a.Router.Running():
	case err := <-errCh:
		_ = a.Close(context.Background())
		return err
	case <-ctx.Done():
		return a.Close(context.Background())
	}

	a.wg.Add(1)
	go a.Standings.Run(context.WithoutCancel(ctx), &a.wg)

	if a.Ops != nil {
		go func() {
			if err := a.Ops.Start(); err != nil {
				errCh <- fmt.Errorf("ops server: %w", err)
			}
		}()
		a.Ops.SetReady(true)
	}

	a.Logger.InfoContext(ctx, "League service running")

	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Shutdown requested")
	case runErr = <-errCh:
		a.Logger.Error("Component failed; shutting down", attr.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(runErr, a.Close(shutdownCtx))
}

// Close stops consuming first, lets in-flight recalculations finish, then
// releases connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Ops != nil {
		a.Ops.SetReady(false)
	}
	if a.Router != nil {
		if err := a.Router.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close router: %w", err))
		}
	}
	if a.Standings != nil {
		if err := a.Standings.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close standings module: %w", err))
		}
	}
	a.wg.Wait()
	if a.Ops != nil {
		if err := a.Ops.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown ops server: %w", err))
		}
	}
	if err := a.release(ctx); err != nil {
		errs = append(errs, err)
	}
	a.Logger.Info("League service stopped")
	return errors.Join(errs...)
}

// release closes connections and flushes traces.
func (a *App) release(ctx context.Context) error {
	var errs []error
	if a.EventBus != nil {
		if err := a.EventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
		a.EventBus = nil
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
		a.DB = nil
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush traces: %w", err))
		}
		a.shutdownTracing = nil
	}
	return errors.Join(errs...)
}
