package standingsdb

import (
	"time"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MatchOutcome is the idempotency ledger of processed FinalizedMatch events.
// Its payload is the replay source for recalculation.
type MatchOutcome struct {
	bun.BaseModel `bun:"table:league_match_outcomes,alias:mo"`

	MatchID        string                         `bun:"match_id,pk"`
	SeasonID       string                         `bun:"season_id,notnull"`
	DivisionID     string                         `bun:"division_id,notnull"`
	ProcessingHash string                         `bun:"processing_hash,notnull"`
	Payload        standingsdomain.FinalizedMatch `bun:"payload,type:jsonb,notnull"`
	ProcessedAt    time.Time                      `bun:"processed_at,nullzero,notnull,default:current_timestamp"`
}

// MatchPosition places a match on a season's timeline: date played, then
// creation time, then match id.
type MatchPosition struct {
	DatePlayed time.Time
	CreatedAt  time.Time
	MatchID    string
}

// PositionOf returns the timeline position of m.
func PositionOf(m standingsdomain.FinalizedMatch) MatchPosition {
	return MatchPosition{DatePlayed: m.DatePlayed, CreatedAt: m.CreatedAt, MatchID: m.MatchID}
}

// MatchResult is one participant's scored result for one match.
type MatchResult struct {
	bun.BaseModel `bun:"table:league_match_results,alias:mr"`

	ID                  int64                     `bun:"id,pk,autoincrement"`
	MatchID             string                    `bun:"match_id,notnull,unique:match_entity"`
	EntityID            string                    `bun:"entity_id,notnull,unique:match_entity"`
	StandingEntityID    string                    `bun:"standing_entity_id,notnull"`
	OpponentID          string                    `bun:"opponent_id"`
	SeasonID            string                    `bun:"season_id,notnull"`
	DivisionID          string                    `bun:"division_id,notnull"`
	SportType           standingsdomain.SportType `bun:"sport_type,notnull"`
	GameType            standingsdomain.GameType  `bun:"game_type,notnull"`
	IsWin               bool                      `bun:"is_win,notnull"`
	IsWalkover          bool                      `bun:"is_walkover,notnull"`
	ParticipationPoints int                       `bun:"participation_points,notnull"`
	SetsWonPoints       int                       `bun:"sets_won_points,notnull"`
	WinBonusPoints      int                       `bun:"win_bonus_points,notnull"`
	MatchPoints         int                       `bun:"match_points,notnull"`
	Margin              int                       `bun:"margin,notnull"`
	SetsWon             int                       `bun:"sets_won,notnull"`
	SetsLost            int                       `bun:"sets_lost,notnull"`
	GamesWon            int                       `bun:"games_won,notnull"`
	GamesLost           int                       `bun:"games_lost,notnull"`
	DatePlayed          time.Time                 `bun:"date_played,notnull"`
	MatchCreatedAt      time.Time                 `bun:"match_created_at,nullzero"`
	CountsForStandings  bool                      `bun:"counts_for_standings,notnull,default:false"`
	ResultSequence      int                       `bun:"result_sequence,notnull"`
	CreatedAt           time.Time                 `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// DivisionStanding is the persisted table row of one entity in a division.
type DivisionStanding struct {
	bun.BaseModel `bun:"table:league_division_standings,alias:ds"`

	SeasonID        string                                `bun:"season_id,pk"`
	DivisionID      string                                `bun:"division_id,pk"`
	EntityID        string                                `bun:"entity_id,pk"`
	Rank            int                                   `bun:"rank,notnull"`
	MatchesPlayed   int                                   `bun:"matches_played,notnull,default:0"`
	Wins            int                                   `bun:"wins,notnull,default:0"`
	Losses          int                                   `bun:"losses,notnull,default:0"`
	TotalPoints     int                                   `bun:"total_points,notnull,default:0"`
	SetsWon         int                                   `bun:"sets_won,notnull,default:0"`
	SetsLost        int                                   `bun:"sets_lost,notnull,default:0"`
	GamesWon        int                                   `bun:"games_won,notnull,default:0"`
	GamesLost       int                                   `bun:"games_lost,notnull,default:0"`
	HeadToHead      map[string]standingsdomain.HeadToHead `bun:"head_to_head,type:jsonb,notnull"`
	CountedMatchIDs []string                              `bun:"counted_match_ids,type:jsonb,notnull"`
	IsLocked        bool                                  `bun:"is_locked,notnull,default:false"`
	UpdatedAt       time.Time                             `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// PlayerRating is a player's rating row for one season.
type PlayerRating struct {
	bun.BaseModel `bun:"table:league_player_ratings,alias:pr"`

	ID             int64     `bun:"id,pk,autoincrement"`
	SeasonID       string    `bun:"season_id,notnull,unique:season_player"`
	PlayerID       string    `bun:"player_id,notnull,unique:season_player"`
	CurrentRating  int       `bun:"current_rating,notnull"`
	RD             float64   `bun:"rating_deviation,notnull"`
	Volatility     float64   `bun:"volatility,notnull"`
	MatchesPlayed  int       `bun:"matches_played,notnull,default:0"`
	IsProvisional  bool      `bun:"is_provisional,notnull,default:true"`
	PeakRating     int       `bun:"peak_rating,notnull"`
	PeakRatingDate time.Time `bun:"peak_rating_date,nullzero"`
	LowestRating   int       `bun:"lowest_rating,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// RatingHistory is an append-only record of one rating change.
type RatingHistory struct {
	bun.BaseModel `bun:"table:league_rating_history,alias:rh"`

	ID           int64                        `bun:"id,pk,autoincrement"`
	SeasonID     string                       `bun:"season_id,notnull"`
	PlayerID     string                       `bun:"player_id,notnull"`
	Sequence     int                          `bun:"sequence,notnull"`
	MatchID      string                       `bun:"match_id,nullzero"`
	AdjustmentID uuid.UUID                    `bun:"adjustment_id,type:uuid,nullzero"`
	RatingBefore int                          `bun:"rating_before,notnull"`
	RatingAfter  int                          `bun:"rating_after,notnull"`
	Delta        int                          `bun:"delta,notnull"`
	RDBefore     float64                      `bun:"rd_before,notnull"`
	RDAfter      float64                      `bun:"rd_after,notnull"`
	Reason       standingsdomain.RatingReason `bun:"reason,notnull"`
	Notes        string                       `bun:"notes"`
	OccurredAt   time.Time                    `bun:"occurred_at,notnull"`
	CreatedAt    time.Time                    `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// AdjustmentType classifies a manual rating correction.
type AdjustmentType string

const (
	AdjustmentCorrection       AdjustmentType = "correction"
	AdjustmentAppealResolution AdjustmentType = "appeal-resolution"
	AdjustmentAdminOverride    AdjustmentType = "admin-override"
	AdjustmentMigration        AdjustmentType = "migration"
)

// RatingAdjustment is an admin's manual rating correction. Paired 1:1 with a
// RatingHistory row through AdjustmentID.
type RatingAdjustment struct {
	bun.BaseModel `bun:"table:league_rating_adjustments,alias:ra"`

	ID             uuid.UUID      `bun:"id,pk,type:uuid"`
	PlayerRatingID int64          `bun:"player_rating_id,notnull"`
	SeasonID       string         `bun:"season_id,notnull"`
	PlayerID       string         `bun:"player_id,notnull"`
	AdminID        string         `bun:"admin_id,notnull"`
	Type           AdjustmentType `bun:"adjustment_type,notnull"`
	RatingBefore   int            `bun:"rating_before,notnull"`
	RatingAfter    int            `bun:"rating_after,notnull"`
	Delta          int            `bun:"delta,notnull"`
	Reason         string         `bun:"reason,notnull"`
	Notified       bool           `bun:"notified,notnull,default:false"`
	CreatedAt      time.Time      `bun:"created_at,notnull"`
}

// RecalculationStatus is the state of a recalculation job.
type RecalculationStatus string

const (
	RecalcPending      RecalculationStatus = "pending"
	RecalcPreviewReady RecalculationStatus = "preview_ready"
	RecalcApplied      RecalculationStatus = "applied"
	RecalcFailed       RecalculationStatus = "failed"
)

// IsTerminal reports whether no further transition is possible.
func (s RecalculationStatus) IsTerminal() bool {
	return s == RecalcApplied || s == RecalcFailed
}

// RatingRecalculation is a recalculation job.
type RatingRecalculation struct {
	bun.BaseModel `bun:"table:league_rating_recalculations,alias:rr"`

	ID                   uuid.UUID                      `bun:"id,pk,type:uuid"`
	Scope                standingsdomain.Scope          `bun:"scope,notnull"`
	TargetID             string                         `bun:"target_id,notnull"`
	SeasonID             string                         `bun:"season_id,notnull"`
	Status               RecalculationStatus            `bun:"status,notnull"`
	RequestedBy          string                         `bun:"requested_by,notnull"`
	AffectedPlayersCount int                            `bun:"affected_players_count,notnull,default:0"`
	ChangesPreview       []standingsdomain.EntityChange `bun:"changes_preview,type:jsonb"`
	PreviewHash          string                         `bun:"preview_hash"`
	ParametersVersion    int                            `bun:"parameters_version"`
	PreviewGeneratedAt   time.Time                      `bun:"preview_generated_at,nullzero"`
	AppliedAt            time.Time                      `bun:"applied_at,nullzero"`
	AppliedBy            string                         `bun:"applied_by"`
	FailedAt             time.Time                      `bun:"failed_at,nullzero"`
	ErrorMessage         string                         `bun:"error_message"`
	CreatedAt            time.Time                      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt            time.Time                      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// RatingParameters is one published version of the rating configuration.
type RatingParameters struct {
	bun.BaseModel `bun:"table:league_rating_parameters,alias:rp"`

	Version              int       `bun:"version,pk"`
	IsActive             bool      `bun:"is_active,notnull,default:false"`
	InitialRating        int       `bun:"initial_rating,notnull"`
	InitialRD            float64   `bun:"initial_rd,notnull"`
	InitialVolatility    float64   `bun:"initial_volatility,notnull"`
	KFactorNew           float64   `bun:"k_factor_new,notnull"`
	KFactorEstablished   float64   `bun:"k_factor_established,notnull"`
	KFactorThreshold     int       `bun:"k_factor_threshold,notnull"`
	SinglesWeight        float64   `bun:"singles_weight,notnull"`
	DoublesWeight        float64   `bun:"doubles_weight,notnull"`
	OneSetMatchWeight    float64   `bun:"one_set_match_weight,notnull"`
	WalkoverWinImpact    float64   `bun:"walkover_win_impact,notnull"`
	WalkoverLossImpact   float64   `bun:"walkover_loss_impact,notnull"`
	ProvisionalThreshold int       `bun:"provisional_threshold,notnull"`
	RatingFloor          int       `bun:"rating_floor,notnull"`
	RDFloor              float64   `bun:"rd_floor,notnull"`
	RDDecay              float64   `bun:"rd_decay,notnull"`
	EffectiveFrom        time.Time `bun:"effective_from,notnull"`
	PublishedBy          string    `bun:"published_by"`
	CreatedAt            time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// SeasonLock is the freeze state of a season.
type SeasonLock struct {
	bun.BaseModel `bun:"table:league_season_locks,alias:sl"`

	SeasonID        string    `bun:"season_id,pk"`
	IsLocked        bool      `bun:"is_locked,notnull,default:false"`
	LockedByAdmin   string    `bun:"locked_by_admin"`
	LockedAt        time.Time `bun:"locked_at,nullzero"`
	OverrideAllowed bool      `bun:"override_allowed,notnull,default:false"`
	SnapshotRef     string    `bun:"snapshot_ref"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// ComputationSource identifies what last refreshed a season.
type ComputationSource string

const (
	SourcePipeline      ComputationSource = "pipeline"
	SourceRecalculation ComputationSource = "recalculation"
	SourceAdjustment    ComputationSource = "adjustment"
)

// SeasonComputation records when a season's derived data was last computed.
type SeasonComputation struct {
	bun.BaseModel `bun:"table:league_season_computations,alias:sc"`

	SeasonID       string            `bun:"season_id,pk"`
	LastComputedAt time.Time         `bun:"last_computed_at,notnull"`
	Source         ComputationSource `bun:"source,notnull"`
}
