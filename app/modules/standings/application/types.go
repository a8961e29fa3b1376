package standingsservice

import (
	"time"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	standingsevents "github.com/Black-And-White-Club/rally-league/app/modules/standings/events"
	standingsdb "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories"
	"github.com/google/uuid"
)

// MatchRecorded is what RecordMatch produced for one match.
type MatchRecorded struct {
	MatchID    string
	SeasonID   string
	DivisionID string
	// Duplicate is set when the match had already been processed with the
	// same payload; nothing was written.
	Duplicate     bool
	Results       []standingsdomain.ResultRow
	Standings     []standingsdomain.Standing
	RatingChanges []standingsdomain.RatingChange
	ComputedAt    time.Time
}

// SeasonStatus exposes a season's lock state and data freshness.
type SeasonStatus struct {
	SeasonID          string
	Lock              standingsdomain.SeasonLock
	LastComputedAt    time.Time
	Source            standingsdb.ComputationSource
	ParametersVersion int
}

// RecalculationRequest asks for a replay of one scope.
type RecalculationRequest struct {
	SeasonID    string
	Scope       standingsdomain.Scope
	TargetID    string
	RequestedBy string
}

// RecalculationJob is the externally visible state of a recalculation.
type RecalculationJob struct {
	ID                   uuid.UUID
	SeasonID             string
	Scope                standingsdomain.Scope
	TargetID             string
	Status               standingsdb.RecalculationStatus
	RequestedBy          string
	AffectedPlayersCount int
	ChangesPreview       []standingsdomain.EntityChange
	ParametersVersion    int
	PreviewGeneratedAt   time.Time
	AppliedAt            time.Time
	AppliedBy            string
	FailedAt             time.Time
	ErrorMessage         string
	CreatedAt            time.Time
}

func jobFromModel(m *standingsdb.RatingRecalculation) RecalculationJob {
	return RecalculationJob{
		ID:                   m.ID,
		SeasonID:             m.SeasonID,
		Scope:                m.Scope,
		TargetID:             m.TargetID,
		Status:               m.Status,
		RequestedBy:          m.RequestedBy,
		AffectedPlayersCount: m.AffectedPlayersCount,
		ChangesPreview:       m.ChangesPreview,
		ParametersVersion:    m.ParametersVersion,
		PreviewGeneratedAt:   m.PreviewGeneratedAt,
		AppliedAt:            m.AppliedAt,
		AppliedBy:            m.AppliedBy,
		FailedAt:             m.FailedAt,
		ErrorMessage:         m.ErrorMessage,
		CreatedAt:            m.CreatedAt,
	}
}

// ResultPayload renders the job as a RecalculationResultV1 event.
func (j RecalculationJob) ResultPayload() *standingsevents.RecalculationResultPayload {
	return &standingsevents.RecalculationResultPayload{
		JobID:                j.ID.String(),
		SeasonID:             j.SeasonID,
		Scope:                j.Scope,
		TargetID:             j.TargetID,
		Status:               string(j.Status),
		AffectedPlayersCount: j.AffectedPlayersCount,
		ChangesPreview:       j.ChangesPreview,
		ErrorMessage:         j.ErrorMessage,
	}
}

// AdjustmentRequest sets a player's rating by hand.
type AdjustmentRequest struct {
	SeasonID  string
	PlayerID  string
	AdminID   string
	Type      standingsdb.AdjustmentType
	NewRating int
	Reason    string
}

// AdjustmentGranted is the recorded adjustment and its history entry.
type AdjustmentGranted struct {
	AdjustmentID uuid.UUID
	Change       standingsdomain.RatingChange
	Rating       standingsdomain.PlayerRating
}

// LockRequest freezes a season.
type LockRequest struct {
	SeasonID string
	AdminID  string
	// Export stores an XLSX snapshot of standings and ratings before locking.
	Export bool
}
