package standingsqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	standingsservice "github.com/Black-And-White-Club/rally-league/app/modules/standings/application"
	"github.com/Black-And-White-Club/rally-league/app/observability"
	"github.com/Black-And-White-Club/rally-league/app/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

// Settings tunes the recalculation queue.
type Settings struct {
	PreviewTimeout time.Duration
	ApplyTimeout   time.Duration
	MaxWorkers     int
}

// QueueService schedules recalculation stages and runs their workers.
type QueueService interface {
	SchedulePreview(ctx context.Context, jobID uuid.UUID) error
	ScheduleApply(ctx context.Context, jobID uuid.UUID, appliedBy string) error
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Ensure Service implements QueueService
var _ QueueService = (*Service)(nil)

// Service handles recalculation jobs using River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewService creates a River-backed queue on its own pgx pool; River needs
// pgx rather than database/sql.
func NewService(
	ctx context.Context,
	dsn string,
	service standingsservice.Service,
	publisher message.Publisher,
	logger *slog.Logger,
	metrics observability.Metrics,
	settings Settings,
) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_recalculation_queue"),
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		ctxLogger.Error("Failed to ping database for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	maxWorkers := settings.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}

	r := &runner{service: service, publisher: publisher, logger: ctxLogger}
	workers := river.NewWorkers()
	river.AddWorker(workers, &PreviewWorker{runner: r, timeout: settings.PreviewTimeout})
	river.AddWorker(workers, &ApplyWorker{runner: r, timeout: applyWorkerTimeout(settings.ApplyTimeout)})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueRecalculation: {MaxWorkers: maxWorkers},
		},
		Workers: workers,
		Logger:  ctxLogger,
	})
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))
	ctxLogger.Info("Recalculation queue initialized")

	return &Service{
		client:  client,
		pool:    pool,
		logger:  ctxLogger,
		metrics: metrics,
	}, nil
}

// applyWorkerTimeout leaves the service room to mark the job FAILED after
// its own apply deadline fires.
func applyWorkerTimeout(apply time.Duration) time.Duration {
	if apply <= 0 {
		return 0
	}
	return apply + 30*time.Second
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Starting recalculation queue")
	if err := s.client.Start(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "start_service", "river")
	return nil
}

// Stop waits for running jobs and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping recalculation queue")
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "stop_service", "river")
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "stop_service", "river")
	return nil
}

// SchedulePreview queues the preview of a PENDING job.
func (s *Service) SchedulePreview(ctx context.Context, jobID uuid.UUID) error {
	return s.insert(ctx, "schedule_preview", jobID, PreviewJob{JobID: jobID})
}

// ScheduleApply queues the apply of a PREVIEW_READY job.
func (s *Service) ScheduleApply(ctx context.Context, jobID uuid.UUID, appliedBy string) error {
	return s.insert(ctx, "schedule_apply", jobID, ApplyJob{JobID: jobID, AppliedBy: appliedBy})
}

func (s *Service) insert(ctx context.Context, operation string, jobID uuid.UUID, args river.JobArgs) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, operation, "river")

	res, err := s.client.Insert(ctx, args, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to queue recalculation job",
			attr.String("operation", operation),
			attr.String("job_id", jobID.String()),
			attr.Error(err),
		)
		s.metrics.RecordOperationFailure(ctx, operation, "river")
		return fmt.Errorf("failed to queue %s: %w", args.Kind(), err)
	}

	s.metrics.RecordOperationSuccess(ctx, operation, "river")
	s.metrics.RecordOperationDuration(ctx, operation, "river", time.Since(start))
	s.logger.InfoContext(ctx, "Recalculation job queued",
		attr.String("operation", operation),
		attr.String("job_id", jobID.String()),
		attr.Int64("river_job_id", res.Job.ID),
		attr.Bool("duplicate", res.UniqueSkippedAsDuplicate),
	)
	return nil
}

// HealthCheck verifies the queue's database connection and schema.
func (s *Service) HealthCheck(ctx context.Context) error {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM river_job WHERE queue = $1", QueueRecalculation).Scan(&count); err != nil {
		s.metrics.RecordOperationFailure(ctx, "health_check", "river")
		return fmt.Errorf("queue service health check failed: %w", err)
	}
	s.logger.DebugContext(ctx, "Queue service health check passed", attr.Int("jobs", count))
	return nil
}
