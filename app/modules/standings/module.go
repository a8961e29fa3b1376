package standings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Black-And-White-Club/rally-league/app/eventbus"
	standingsservice "github.com/Black-And-White-Club/rally-league/app/modules/standings/application"
	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	standingsadapters "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/adapters"
	standingshandlers "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/handlers"
	standingsqueue "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/queue"
	standingsdb "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories"
	standingsrouter "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/router"
	standingsstorage "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/storage"
	"github.com/Black-And-White-Club/rally-league/app/observability"
	"github.com/Black-And-White-Club/rally-league/app/observability/attr"
	"github.com/Black-And-White-Club/rally-league/config"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles what every layer of the module reports to.
type Observability struct {
	Logger   *slog.Logger
	Metrics  observability.Metrics
	Tracer   trace.Tracer
	Registry *prometheus.Registry
}

// Module represents the standings module.
type Module struct {
	EventBus        eventbus.EventBus
	Service         standingsservice.Service
	StandingsRouter *standingsrouter.StandingsRouter
	// Queue is nil when recalculations run inline.
	Queue      *standingsqueue.Service
	inline     *standingsqueue.InlineScheduler
	logger     *slog.Logger
	cancelFunc context.CancelFunc
}

// ServiceSettings translates configuration into pipeline settings.
func ServiceSettings(cfg *config.Config) (standingsservice.Settings, error) {
	policy, err := standingsdomain.ParseSelectionPolicy(cfg.Standings.SelectionPolicy)
	if err != nil {
		return standingsservice.Settings{}, err
	}
	settings := standingsservice.DefaultSettings()
	settings.Policy = policy
	if cfg.Standings.BestK > 0 {
		settings.BestK = cfg.Standings.BestK
	}
	settings.ApplyTimeout = cfg.Recalculation.ApplyTimeout
	if cfg.Recalculation.MaxParallelDivisions > 0 {
		settings.MaxParallelDivisions = cfg.Recalculation.MaxParallelDivisions
	}
	return settings, nil
}

// NewService builds the standings service on db. The CLI uses it directly;
// NewStandingsModule adds messaging on top.
func NewService(ctx context.Context, cfg *config.Config, obs Observability, db *bun.DB) (*standingsservice.StandingsService, error) {
	settings, err := ServiceSettings(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid standings settings: %w", err)
	}

	snapshots, err := standingsstorage.New(ctx, standingsstorage.Config{
		Backend:   cfg.Snapshots.Backend,
		Directory: cfg.Snapshots.Directory,
		S3: standingsstorage.S3Config{
			Bucket:          cfg.Snapshots.Bucket,
			Region:          cfg.Snapshots.Region,
			Endpoint:        cfg.Snapshots.Endpoint,
			AccessKeyID:     cfg.Snapshots.AccessKeyID,
			SecretAccessKey: cfg.Snapshots.SecretAccessKey,
			Prefix:          cfg.Snapshots.Prefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
	}

	admins := standingsadapters.NewStaticAdminDirectory(cfg.Admin.Admins)
	if admins.Len() == 0 {
		obs.Logger.WarnContext(ctx, "No admins configured; every admin command will be rejected")
	}

	return standingsservice.NewStandingsService(
		standingsdb.NewRepository(db),
		admins,
		snapshots,
		obs.Logger,
		obs.Metrics,
		obs.Tracer,
		db,
		settings,
	), nil
}

// NewStandingsModule creates a new instance of the Standings module.
func NewStandingsModule(
	ctx context.Context,
	cfg *config.Config,
	obs Observability,
	db *bun.DB,
	eventBus eventbus.EventBus,
	router *message.Router,
) (*Module, error) {
	logger := obs.Logger
	logger.InfoContext(ctx, "standings.NewStandingsModule called")

	service, err := NewService(ctx, cfg, obs, db)
	if err != nil {
		return nil, err
	}

	module := &Module{
		EventBus: eventBus,
		Service:  service,
		logger:   logger,
	}

	queueSettings := standingsqueue.Settings{
		PreviewTimeout: cfg.Recalculation.PreviewTimeout,
		ApplyTimeout:   cfg.Recalculation.ApplyTimeout,
		MaxWorkers:     cfg.Recalculation.MaxWorkers,
	}

	var scheduler standingshandlers.RecalculationScheduler
	switch cfg.Recalculation.Queue {
	case config.QueueInline:
		module.inline = standingsqueue.NewInlineScheduler(service, eventBus, logger, queueSettings)
		scheduler = module.inline
	default:
		queue, err := standingsqueue.NewService(ctx, cfg.Postgres.DSN, service, eventBus, logger, obs.Metrics, queueSettings)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize recalculation queue: %w", err)
		}
		module.Queue = queue
		scheduler = queue
	}

	handlers := standingshandlers.NewStandingsHandlers(service, scheduler, logger, obs.Metrics, standingshandlers.Settings{
		CommandRate:  cfg.Admin.CommandRate,
		CommandBurst: cfg.Admin.CommandBurst,
	})

	module.StandingsRouter = standingsrouter.NewStandingsRouter(
		logger, router, eventBus, eventBus, obs.Tracer, obs.Metrics, obs.Registry, standingsrouter.DefaultSettings(),
	)
	if err := module.StandingsRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure standings router: %w", err)
	}

	return module, nil
}

// Run starts the recalculation queue and blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting standings module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.Queue != nil {
		if err := m.Queue.Start(ctx); err != nil {
			m.logger.ErrorContext(ctx, "Recalculation queue failed to start", attr.Error(err))
			return
		}
	}

	<-ctx.Done()
	m.logger.InfoContext(ctx, "Standings module goroutine stopped")
}

// HealthCheck reports whether recalculation jobs can be queued.
func (m *Module) HealthCheck(ctx context.Context) error {
	if m.Queue == nil {
		return nil
	}
	return m.Queue.HealthCheck(ctx)
}

// Close stops the standings module and waits for in-flight recalculations.
func (m *Module) Close(ctx context.Context) error {
	m.logger.Info("Stopping standings module")

	var err error
	if m.Queue != nil {
		err = m.Queue.Stop(ctx)
	}
	if m.inline != nil {
		m.inline.Wait()
	}

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	m.logger.Info("Standings module stopped")
	return err
}
