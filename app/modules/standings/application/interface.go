package standingsservice

import (
	"context"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	"github.com/Black-And-White-Club/rally-league/pkg/results"
	"github.com/google/uuid"
)

// Service defines the contract for the standings and rating engine.
//
// Every operation returns an infrastructure error (retryable) separately from
// a failure result carrying a *standingsdomain.Error (report, never retry).
type Service interface {
	// --- Match pipeline ---

	// RecordMatch runs a finalized match through scoring, standings and
	// ratings in one transaction. Re-delivery of a processed match is a no-op.
	RecordMatch(ctx context.Context, match standingsdomain.FinalizedMatch) (results.OperationResult[*MatchRecorded, error], error)

	// --- Reads ---

	GetDivisionStandings(ctx context.Context, seasonID, divisionID string) (results.OperationResult[[]standingsdomain.Standing, error], error)
	GetPlayerRating(ctx context.Context, seasonID, playerID string) (results.OperationResult[standingsdomain.PlayerRating, error], error)
	GetRatingHistory(ctx context.Context, seasonID, playerID string) (results.OperationResult[[]standingsdomain.RatingChange, error], error)
	GetSeasonStatus(ctx context.Context, seasonID string) (results.OperationResult[SeasonStatus, error], error)
	RenderRatingChart(ctx context.Context, seasonID, playerID string) (results.OperationResult[[]byte, error], error)

	// --- Recalculation ---

	SubmitRecalculation(ctx context.Context, req RecalculationRequest) (results.OperationResult[RecalculationJob, error], error)
	GenerateRecalculationPreview(ctx context.Context, jobID uuid.UUID) (results.OperationResult[RecalculationJob, error], error)
	ApplyRecalculation(ctx context.Context, jobID uuid.UUID, appliedBy string) (results.OperationResult[RecalculationJob, error], error)
	GetRecalculation(ctx context.Context, jobID uuid.UUID) (results.OperationResult[RecalculationJob, error], error)

	// --- Adjustments ---

	GrantAdjustment(ctx context.Context, req AdjustmentRequest) (results.OperationResult[AdjustmentGranted, error], error)

	// --- Season lock ---

	LockSeason(ctx context.Context, req LockRequest) (results.OperationResult[standingsdomain.SeasonLock, error], error)
	SetLockOverride(ctx context.Context, seasonID, adminID string, allowed bool) (results.OperationResult[standingsdomain.SeasonLock, error], error)
	UnlockSeason(ctx context.Context, seasonID, adminID string) (results.OperationResult[standingsdomain.SeasonLock, error], error)
	ExportSeason(ctx context.Context, seasonID string) (results.OperationResult[[]byte, error], error)

	// --- Parameters ---

	PublishParameters(ctx context.Context, params standingsdomain.RatingParameters, publishedBy string) (results.OperationResult[standingsdomain.RatingParameters, error], error)
	GetActiveParameters(ctx context.Context) (results.OperationResult[standingsdomain.RatingParameters, error], error)
}

// AdminDirectory answers whether an actor may issue admin commands.
type AdminDirectory interface {
	IsAdmin(ctx context.Context, adminID string) (bool, error)
}

// SnapshotStore keeps season export snapshots and returns a reference to
// the stored object.
type SnapshotStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}
