package standingsservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	standingsdb "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories"
	"github.com/Black-And-White-Club/rally-league/app/observability"
	"github.com/Black-And-White-Club/rally-league/app/observability/attr"
	"github.com/Black-And-White-Club/rally-league/pkg/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TxRunner runs fn inside one database transaction. *bun.DB satisfies it.
type TxRunner interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error
}

// Settings tunes the computation pipeline.
type Settings struct {
	Policy standingsdomain.SelectionPolicy
	BestK  int
	// ApplyTimeout bounds one recalculation apply, including its writes.
	ApplyTimeout time.Duration
	// MaxParallelDivisions bounds concurrent division aggregation during replay.
	MaxParallelDivisions int
}

// DefaultSettings returns the production defaults.
func DefaultSettings() Settings {
	return Settings{
		Policy:               standingsdomain.DefaultSelectionPolicy,
		BestK:                standingsdomain.DefaultBestK,
		ApplyTimeout:         2 * time.Minute,
		MaxParallelDivisions: 4,
	}
}

// StandingsService implements the Service interface.
type StandingsService struct {
	repo      standingsdb.Repository
	admins    AdminDirectory
	snapshots SnapshotStore
	logger    *slog.Logger
	metrics   observability.Metrics
	tracer    trace.Tracer
	db        TxRunner
	settings  Settings
	now       func() time.Time
}

// NewStandingsService creates a new StandingsService. snapshots may be nil,
// in which case season locks never export.
func NewStandingsService(
	repo standingsdb.Repository,
	admins AdminDirectory,
	snapshots SnapshotStore,
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
	db TxRunner,
	settings Settings,
) *StandingsService {
	if settings.BestK <= 0 {
		settings.BestK = standingsdomain.DefaultBestK
	}
	if settings.Policy == "" {
		settings.Policy = standingsdomain.DefaultSelectionPolicy
	}
	return &StandingsService{
		repo:      repo,
		admins:    admins,
		snapshots: snapshots,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		db:        db,
		settings:  settings,
		now:       utcMicros,
	}
}

// utcMicros is the service clock. Postgres keeps microseconds, so stored and
// returned timestamps compare equal.
func utcMicros() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any] func(ctx context.Context) (results.OperationResult[S, error], error)

// withTelemetry wraps a service operation with tracing, metrics, logging and
// panic recovery. subject is the season the operation works on, or a fixed
// label for operations addressed by job id.
func withTelemetry[S any](
	s *StandingsService,
	ctx context.Context,
	operationName string,
	subject string,
	op operationFunc[S],
) (result results.OperationResult[S, error], err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("subject", subject),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, subject)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, subject, time.Since(startTime))
	}()

	s.logger.InfoContext(ctx, operationName+" triggered",
		attr.String("operation", operationName),
		attr.String("subject", subject),
		attr.ExtractCorrelationID(ctx),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.String("subject", subject),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, subject)
			span.RecordError(err)
			result = results.OperationResult[S, error]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("subject", subject),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, subject)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("subject", subject),
			attr.String("error_kind", string(standingsdomain.KindOf(*result.Failure))),
			attr.Error(*result.Failure),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, subject)
		return result, nil
	}

	s.logger.InfoContext(ctx, operationName+" completed successfully",
		attr.String("operation", operationName),
		attr.String("subject", subject),
		attr.ExtractCorrelationID(ctx),
	)
	s.metrics.RecordOperationSuccess(ctx, operationName, subject)

	return result, nil
}

// runInTx runs fn inside a transaction. Any error, domain or not, rolls the
// whole transaction back.
func runInTx[T any](
	s *StandingsService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (T, error),
) (T, error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var out T
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		out, txErr = fn(ctx, tx)
		return txErr
	})
	return out, err
}

// settle splits an operation outcome: domain errors become a failure result
// the caller reports, anything else stays an error the caller may retry.
func settle[S any](value S, err error) (results.OperationResult[S, error], error) {
	if err == nil {
		return results.SuccessResult[S, error](value), nil
	}
	if standingsdomain.KindOf(err) != "" {
		return results.FailureResult[S, error](err), nil
	}
	return results.OperationResult[S, error]{}, err
}

// activeParameters loads the active rating parameters. Their absence is a
// configuration failure, never a reason to guess defaults.
func (s *StandingsService) activeParameters(ctx context.Context, db bun.IDB) (standingsdomain.RatingParameters, error) {
	row, err := s.repo.GetActiveParameters(ctx, db)
	if err != nil {
		return standingsdomain.RatingParameters{}, fmt.Errorf("failed to load rating parameters: %w", err)
	}
	if row == nil {
		return standingsdomain.RatingParameters{}, standingsdomain.ConfigurationError(standingsdomain.ErrNoActiveParameters, "publish a parameter version first")
	}
	params := row.ToDomain()
	if err := params.Validate(); err != nil {
		return standingsdomain.RatingParameters{}, err
	}
	return params, nil
}

// requireAdmin rejects actors the admin directory does not know.
func (s *StandingsService) requireAdmin(ctx context.Context, adminID string) error {
	if adminID == "" {
		return standingsdomain.StateError(standingsdomain.ErrUnknownAdmin, "actor is required")
	}
	if s.admins == nil {
		return nil
	}
	ok, err := s.admins.IsAdmin(ctx, adminID)
	if err != nil {
		return fmt.Errorf("failed to resolve admin %s: %w", adminID, err)
	}
	if !ok {
		return standingsdomain.StateError(standingsdomain.ErrUnknownAdmin, "admin %s", adminID)
	}
	return nil
}
