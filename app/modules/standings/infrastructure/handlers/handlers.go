package standingshandlers

import (
	"context"
	"log/slog"
	"sync"

	standingsservice "github.com/Black-And-White-Club/rally-league/app/modules/standings/application"
	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	"github.com/Black-And-White-Club/rally-league/app/eventbus"
	"github.com/Black-And-White-Club/rally-league/app/observability"
	"github.com/Black-And-White-Club/rally-league/app/observability/attr"
	"golang.org/x/time/rate"
)

// Settings tunes admin command intake.
type Settings struct {
	// CommandRate is the sustained commands per second allowed per actor.
	// Zero disables throttling.
	CommandRate  float64
	CommandBurst int
}

// StandingsHandlers handles standings-related events.
type StandingsHandlers struct {
	service   standingsservice.Service
	scheduler RecalculationScheduler
	logger    *slog.Logger
	metrics   observability.Metrics
	limiter   *actorLimiter
}

// NewStandingsHandlers creates a new instance of StandingsHandlers.
func NewStandingsHandlers(
	service standingsservice.Service,
	scheduler RecalculationScheduler,
	logger *slog.Logger,
	metrics observability.Metrics,
	settings Settings,
) Handlers {
	if metrics == nil {
		metrics = observability.NoOpMetrics{}
	}
	return &StandingsHandlers{
		service:   service,
		scheduler: scheduler,
		logger:    logger,
		metrics:   metrics,
		limiter:   newActorLimiter(settings.CommandRate, settings.CommandBurst),
	}
}

// actorLimiter keeps one token bucket per admin.
type actorLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newActorLimiter(perSecond float64, burst int) *actorLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &actorLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *actorLimiter) Allow(actor string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	lim, ok := l.limiters[actor]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[actor] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// errorKind labels a failure for outbound events; infrastructure errors have
// no domain kind.
func errorKind(err error) string {
	if kind := standingsdomain.KindOf(err); kind != "" {
		return string(kind)
	}
	return "internal"
}

// seasonTopic scopes a topic to a season, falling back to the base topic
// when the season id cannot be a subject token.
func (h *StandingsHandlers) seasonTopic(ctx context.Context, base, seasonID string) string {
	topic, err := eventbus.FormatSeasonScopedTopic(base, seasonID)
	if err != nil {
		h.logger.WarnContext(ctx, "Publishing on unscoped topic",
			attr.String("topic", base),
			attr.SeasonID(seasonID),
			attr.Error(err),
		)
		return base
	}
	return topic
}
