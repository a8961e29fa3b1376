package standingsrouter

import (
	"context"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/rally-league/app/eventbus"
	standingsevents "github.com/Black-And-White-Club/rally-league/app/modules/standings/events"
	standingshandlers "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/handlers"
	"github.com/Black-And-White-Club/rally-league/pkg/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// PoisonTopic receives messages that still fail after every retry.
const PoisonTopic = "league.standings.poison.v1"

// ModuleMetadataKey tags every message handled by this router.
const ModuleMetadataKey = "module"

// Settings tunes redelivery of failing messages.
type Settings struct {
	MaxRetries      int
	InitialInterval time.Duration
}

// DefaultSettings returns the production retry policy.
func DefaultSettings() Settings {
	return Settings{MaxRetries: 3, InitialInterval: 200 * time.Millisecond}
}

type StandingsRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     eventbus.EventBus
	publisher      eventbus.EventBus
	tracer         trace.Tracer
	metrics        handlerwrapper.ReturningMetrics
	metricsBuilder *metrics.PrometheusMetricsBuilder
	settings       Settings
}

// NewStandingsRouter creates a new instance of the router. A nil
// prometheusRegistry disables router metrics.
func NewStandingsRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	tracer trace.Tracer,
	handlerMetrics handlerwrapper.ReturningMetrics,
	prometheusRegistry *prometheus.Registry,
	settings Settings,
) *StandingsRouter {
	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if prometheusRegistry != nil {
		builder := metrics.NewPrometheusMetricsBuilder(prometheusRegistry, "league", "standings")
		metricsBuilder = &builder
	}

	return &StandingsRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		tracer:         tracer,
		metrics:        handlerMetrics,
		metricsBuilder: metricsBuilder,
		settings:       settings,
	}
}

// Configure sets up the middlewares and registers all module-specific event handlers.
func (r *StandingsRouter) Configure(routerCtx context.Context, handlers standingshandlers.Handlers) error {
	if r.metricsBuilder != nil {
		r.logger.InfoContext(routerCtx, "Adding Prometheus router metrics middleware for Standings")
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	poison, err := middleware.PoisonQueue(r.publisher, PoisonTopic)
	if err != nil {
		return err
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		moduleMetadata("standings"),
		poison,
		middleware.Retry{
			MaxRetries:      r.settings.MaxRetries,
			InitialInterval: r.settings.InitialInterval,
			Multiplier:      2,
			Logger:          watermill.NewSlogLogger(r.logger),
		}.Middleware,
		middleware.Recoverer,
	)

	return r.RegisterHandlers(routerCtx, handlers)
}

// moduleMetadata stamps produced messages with the module that handled
// their cause.
func moduleMetadata(module string) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			out, err := h(msg)
			for _, m := range out {
				m.Metadata.Set(ModuleMetadataKey, module)
			}
			return out, err
		}
	}
}

// handlerDeps provides a scannable structure for the registerHandler helper.
type handlerDeps struct {
	router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    handlerwrapper.ReturningMetrics
}

// registerHandler is a generic helper to reduce boilerplate when adding topics to the router.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "standings." + topic
	deps.router.AddHandler(
		handlerName,
		topic,
		deps.subscriber,
		"",
		deps.publisher,
		handlerwrapper.WrapTransformingTyped(
			handlerName,
			deps.logger,
			deps.tracer,
			deps.metrics,
			handler,
		),
	)
}

// RegisterHandlers binds the inbound topics to their handlers.
func (r *StandingsRouter) RegisterHandlers(ctx context.Context, handlers standingshandlers.Handlers) error {
	r.logger.InfoContext(ctx, "Registering Standings Event Handlers")

	deps := handlerDeps{
		router:     r.Router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
		metrics:    r.metrics,
	}

	registerHandler(deps, standingsevents.MatchFinalizedV1, handlers.HandleMatchFinalized)
	registerHandler(deps, standingsevents.AdminCommandV1, handlers.HandleAdminCommand)

	return nil
}

// Close stops the router and cleans up resources.
func (r *StandingsRouter) Close() error {
	return r.Router.Close()
}
