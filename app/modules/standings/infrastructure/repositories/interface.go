package standingsdb

import (
	"context"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for standings and rating persistence.
// Every method takes the bun.IDB to run on so callers can compose calls
// inside one transaction; a nil db falls back to the repository's pool.
//
// Error semantics:
//   - Single-row getters return (nil, nil) when the row does not exist
//   - ErrNoRowsAffected: UPDATE matched no rows
//   - ErrUniqueViolation: INSERT collided with a unique index
//   - Other errors: Infrastructure failures (DB connection, query errors)
type Repository interface {
	// --- Locking (transaction scoped, released on commit/rollback) ---

	// AcquireSeasonSharedLock lets concurrent pipeline writers share a season
	// while excluding recalculation apply.
	AcquireSeasonSharedLock(ctx context.Context, db bun.IDB, seasonID string) error
	// AcquireSeasonExclusiveLock excludes every other writer of the season.
	AcquireSeasonExclusiveLock(ctx context.Context, db bun.IDB, seasonID string) error
	// AcquireDivisionLock serializes standings rewrites of one division.
	AcquireDivisionLock(ctx context.Context, db bun.IDB, seasonID, divisionID string) error
	// AcquireEntityLocks serializes sequence assignment and rating updates per
	// entity. Locks are taken in sorted order.
	AcquireEntityLocks(ctx context.Context, db bun.IDB, seasonID string, entityIDs []string) error

	// --- Match outcome ledger ---

	GetMatchOutcome(ctx context.Context, db bun.IDB, matchID string) (*MatchOutcome, error)
	InsertMatchOutcome(ctx context.Context, db bun.IDB, outcome *MatchOutcome) error
	// ListMatchOutcomes returns every processed match of a season.
	ListMatchOutcomes(ctx context.Context, db bun.IDB, seasonID string) ([]MatchOutcome, error)

	// --- Match results ---

	// CountEntityResults returns the number of results recorded this season
	// per entity. Entities with no results are absent from the map.
	CountEntityResults(ctx context.Context, db bun.IDB, seasonID string, entityIDs []string) (map[string]int, error)
	// HasLaterActivity reports whether any of the players already has a
	// result ordered after pos, or an adjustment made after pos was played.
	HasLaterActivity(ctx context.Context, db bun.IDB, seasonID string, playerIDs []string, pos MatchPosition) (bool, error)
	InsertMatchResults(ctx context.Context, db bun.IDB, results []MatchResult) error
	ListDivisionResults(ctx context.Context, db bun.IDB, seasonID, divisionID string) ([]MatchResult, error)
	ListSeasonResults(ctx context.Context, db bun.IDB, seasonID string) ([]MatchResult, error)
	// UpdateCountedFlags writes counts_for_standings for rows identified by id.
	UpdateCountedFlags(ctx context.Context, db bun.IDB, results []MatchResult) error
	DeleteEntityResults(ctx context.Context, db bun.IDB, seasonID string, entityIDs []string) error

	// --- Division standings ---

	// ReplaceDivisionStandings swaps the whole table of a division.
	ReplaceDivisionStandings(ctx context.Context, db bun.IDB, seasonID, divisionID string, standings []DivisionStanding) error
	ListDivisionStandings(ctx context.Context, db bun.IDB, seasonID, divisionID string) ([]DivisionStanding, error)
	ListSeasonStandings(ctx context.Context, db bun.IDB, seasonID string) ([]DivisionStanding, error)
	SetStandingsLocked(ctx context.Context, db bun.IDB, seasonID string, locked bool) error

	// --- Player ratings and history ---

	GetPlayerRating(ctx context.Context, db bun.IDB, seasonID, playerID string) (*PlayerRating, error)
	GetPlayerRatings(ctx context.Context, db bun.IDB, seasonID string, playerIDs []string) (map[string]*PlayerRating, error)
	ListSeasonRatings(ctx context.Context, db bun.IDB, seasonID string) ([]PlayerRating, error)
	UpsertPlayerRatings(ctx context.Context, db bun.IDB, ratings []*PlayerRating) error
	DeletePlayerRatings(ctx context.Context, db bun.IDB, seasonID string, playerIDs []string) error

	// LatestHistorySequences returns the highest history sequence per player.
	LatestHistorySequences(ctx context.Context, db bun.IDB, seasonID string, playerIDs []string) (map[string]int, error)
	InsertRatingHistory(ctx context.Context, db bun.IDB, entries []RatingHistory) error
	// ListRatingHistory returns a player's history in sequence order.
	ListRatingHistory(ctx context.Context, db bun.IDB, seasonID, playerID string) ([]RatingHistory, error)
	ListSeasonRatingHistory(ctx context.Context, db bun.IDB, seasonID string) ([]RatingHistory, error)
	DeleteRatingHistory(ctx context.Context, db bun.IDB, seasonID string, playerIDs []string) error

	// --- Adjustments ---

	InsertAdjustment(ctx context.Context, db bun.IDB, adjustment *RatingAdjustment) error
	ListSeasonAdjustments(ctx context.Context, db bun.IDB, seasonID string) ([]RatingAdjustment, error)

	// --- Recalculation jobs ---

	// InsertRecalculation returns ErrUniqueViolation when an open job already
	// exists for the scope and target.
	InsertRecalculation(ctx context.Context, db bun.IDB, job *RatingRecalculation) error
	GetRecalculation(ctx context.Context, db bun.IDB, id uuid.UUID) (*RatingRecalculation, error)
	// GetRecalculationForUpdate row-locks the job for the rest of the transaction.
	GetRecalculationForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*RatingRecalculation, error)
	FindOpenRecalculation(ctx context.Context, db bun.IDB, seasonID string, scope standingsdomain.Scope, targetID string) (*RatingRecalculation, error)
	UpdateRecalculation(ctx context.Context, db bun.IDB, job *RatingRecalculation) error

	// --- Rating parameters ---

	GetActiveParameters(ctx context.Context, db bun.IDB) (*RatingParameters, error)
	LatestParametersVersion(ctx context.Context, db bun.IDB) (int, error)
	// ActivateParameters inserts a new version and moves the active flag onto it.
	ActivateParameters(ctx context.Context, db bun.IDB, params *RatingParameters) error

	// --- Seasons ---

	GetSeasonLock(ctx context.Context, db bun.IDB, seasonID string) (*SeasonLock, error)
	UpsertSeasonLock(ctx context.Context, db bun.IDB, lock *SeasonLock) error
	GetSeasonComputation(ctx context.Context, db bun.IDB, seasonID string) (*SeasonComputation, error)
	TouchSeasonComputation(ctx context.Context, db bun.IDB, computation *SeasonComputation) error
}
