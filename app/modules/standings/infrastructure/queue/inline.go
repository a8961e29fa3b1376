package standingsqueue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	standingsservice "github.com/Black-And-White-Club/rally-league/app/modules/standings/application"
	"github.com/Black-And-White-Club/rally-league/app/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// InlineScheduler runs recalculation stages on goroutines of this process.
// It serves the in-memory setup where no River schema exists; stages are
// not persisted and are lost on shutdown.
type InlineScheduler struct {
	runner         *runner
	previewTimeout time.Duration
	applyTimeout   time.Duration

	mu      sync.Mutex
	wg      sync.WaitGroup
	stopped bool
}

// NewInlineScheduler builds an InlineScheduler.
func NewInlineScheduler(service standingsservice.Service, publisher message.Publisher, logger *slog.Logger, settings Settings) *InlineScheduler {
	return &InlineScheduler{
		runner:         &runner{service: service, publisher: publisher, logger: logger},
		previewTimeout: settings.PreviewTimeout,
		applyTimeout:   applyWorkerTimeout(settings.ApplyTimeout),
	}
}

func (s *InlineScheduler) SchedulePreview(ctx context.Context, jobID uuid.UUID) error {
	return s.spawn(ctx, "preview", jobID, s.previewTimeout, func(ctx context.Context) error {
		return s.runner.preview(ctx, jobID)
	})
}

func (s *InlineScheduler) ScheduleApply(ctx context.Context, jobID uuid.UUID, appliedBy string) error {
	return s.spawn(ctx, "apply", jobID, s.applyTimeout, func(ctx context.Context) error {
		return s.runner.apply(ctx, jobID, appliedBy)
	})
}

func (s *InlineScheduler) spawn(ctx context.Context, stage string, jobID uuid.UUID, timeout time.Duration, fn func(context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return context.Canceled
	}

	// Detached from the handler's message context, which ends on ack.
	runCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := runCtx, context.CancelFunc(func() {})
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(runCtx, timeout)
		}
		defer cancel()
		if err := fn(ctx); err != nil {
			s.runner.logger.ErrorContext(ctx, "Inline recalculation stage failed",
				attr.String("stage", stage),
				attr.String("job_id", jobID.String()),
				attr.Error(err),
			)
		}
	}()
	return nil
}

// Wait blocks until every spawned stage has returned. Later schedules are
// refused.
func (s *InlineScheduler) Wait() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.wg.Wait()
}
