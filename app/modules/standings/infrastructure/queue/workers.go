package standingsqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	standingsservice "github.com/Black-And-White-Club/rally-league/app/modules/standings/application"
	standingsevents "github.com/Black-And-White-Club/rally-league/app/modules/standings/events"
	"github.com/Black-And-White-Club/rally-league/app/observability/attr"
	"github.com/Black-And-White-Club/rally-league/pkg/handlerwrapper"
	"github.com/Black-And-White-Club/rally-league/pkg/results"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// runner executes recalculation stages and announces their outcome. River
// workers and the inline scheduler share it.
type runner struct {
	service   standingsservice.Service
	publisher message.Publisher
	logger    *slog.Logger
}

func (r *runner) preview(ctx context.Context, jobID uuid.UUID) error {
	result, err := r.service.GenerateRecalculationPreview(ctx, jobID)
	return r.report(ctx, "preview", jobID, result, err)
}

func (r *runner) apply(ctx context.Context, jobID uuid.UUID, appliedBy string) error {
	result, err := r.service.ApplyRecalculation(ctx, jobID, appliedBy)
	return r.report(ctx, "apply", jobID, result, err)
}

// report publishes a RecalculationResultV1 event. Infrastructure errors are
// returned so the stage is retried; business failures are terminal for the
// stage and reported with the job's current state.
func (r *runner) report(
	ctx context.Context,
	stage string,
	jobID uuid.UUID,
	result results.OperationResult[standingsservice.RecalculationJob, error],
	err error,
) error {
	if err != nil {
		return fmt.Errorf("recalculation %s %s: %w", stage, jobID, err)
	}

	var job standingsservice.RecalculationJob
	if result.IsSuccess() {
		job = *result.Success
		r.logger.InfoContext(ctx, "Recalculation stage finished",
			attr.String("stage", stage),
			attr.String("job_id", jobID.String()),
			attr.String("status", string(job.Status)),
			attr.Int("affected_players", job.AffectedPlayersCount),
		)
	} else {
		failure := *result.Failure
		r.logger.WarnContext(ctx, "Recalculation stage rejected",
			attr.String("stage", stage),
			attr.String("job_id", jobID.String()),
			attr.Error(failure),
		)
		current, lookupErr := r.service.GetRecalculation(ctx, jobID)
		if lookupErr == nil && current.IsSuccess() {
			job = *current.Success
		} else {
			job = standingsservice.RecalculationJob{ID: jobID}
		}
		job.ErrorMessage = failure.Error()
	}

	msg, err := handlerwrapper.NewMessage(ctx, standingsevents.RecalculationResultV1, job.ResultPayload())
	if err != nil {
		return fmt.Errorf("build recalculation result: %w", err)
	}
	if err := r.publisher.Publish(standingsevents.RecalculationResultV1, msg); err != nil {
		return fmt.Errorf("publish recalculation result: %w", err)
	}
	return nil
}

// PreviewWorker runs PreviewJob.
type PreviewWorker struct {
	river.WorkerDefaults[PreviewJob]
	runner  *runner
	timeout time.Duration
}

// Timeout bounds one preview attempt.
func (w *PreviewWorker) Timeout(*river.Job[PreviewJob]) time.Duration {
	return w.timeout
}

func (w *PreviewWorker) Work(ctx context.Context, job *river.Job[PreviewJob]) error {
	return w.runner.preview(ctx, job.Args.JobID)
}

// ApplyWorker runs ApplyJob.
type ApplyWorker struct {
	river.WorkerDefaults[ApplyJob]
	runner  *runner
	timeout time.Duration
}

// Timeout bounds one apply attempt. The service enforces its own apply
// deadline inside this one.
func (w *ApplyWorker) Timeout(*river.Job[ApplyJob]) time.Duration {
	return w.timeout
}

func (w *ApplyWorker) Work(ctx context.Context, job *river.Job[ApplyJob]) error {
	return w.runner.apply(ctx, job.Args.JobID, job.Args.AppliedBy)
}
