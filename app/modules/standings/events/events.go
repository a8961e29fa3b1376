// Package standingsevents defines the wire contract of the standings module:
// topics and their JSON payloads.
package standingsevents

import (
	"time"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
)

// Inbound topics.
const (
	// MatchFinalizedV1 carries a standingsdomain.FinalizedMatch.
	MatchFinalizedV1 = "league.match.finalized.v1"
	// AdminCommandV1 carries an AdminCommandPayload.
	AdminCommandV1 = "league.admin.command.v1"
)

// Outbound topics.
const (
	StandingsUpdatedV1      = "league.standings.updated.v1"
	RatingHistoryAppendedV1 = "league.rating.history.appended.v1"
	RecalculationResultV1   = "league.recalculation.result.v1"
	SeasonLockChangedV1     = "league.season.lock.changed.v1"
	AdminCommandFailedV1    = "league.admin.command.failed.v1"
	MatchRecordingFailedV1  = "league.match.recording.failed.v1"
)

// AdminCommandType enumerates admin commands.
type AdminCommandType string

const (
	CommandGrantAdjustment AdminCommandType = "GRANT_ADJUSTMENT"
	CommandSubmitRecalc    AdminCommandType = "SUBMIT_RECALC"
	CommandLockSeason      AdminCommandType = "LOCK_SEASON"
	CommandApplyRecalc     AdminCommandType = "APPLY_RECALC"
	CommandSetLockOverride AdminCommandType = "SET_LOCK_OVERRIDE"
	CommandUnlockSeason    AdminCommandType = "UNLOCK_SEASON"
)

// AdminCommandPayload is an admin's request. Target is the season for season
// commands, the job id for APPLY_RECALC and the player for GRANT_ADJUSTMENT.
type AdminCommandPayload struct {
	CommandID string           `json:"command_id"`
	Type      AdminCommandType `json:"type"`
	Actor     string           `json:"actor"`
	SeasonID  string           `json:"season_id"`
	Target    string           `json:"target"`

	Adjustment *AdjustmentArgs    `json:"adjustment,omitempty"`
	Recalc     *RecalculationArgs `json:"recalculation,omitempty"`
	Lock       *LockArgs          `json:"lock,omitempty"`
}

// AdjustmentArgs are the GRANT_ADJUSTMENT arguments.
type AdjustmentArgs struct {
	Type      string `json:"type"`
	NewRating int    `json:"new_rating"`
	Reason    string `json:"reason"`
}

// RecalculationArgs are the SUBMIT_RECALC arguments.
type RecalculationArgs struct {
	Scope    standingsdomain.Scope `json:"scope"`
	TargetID string                `json:"target_id"`
}

// LockArgs are the LOCK_SEASON and SET_LOCK_OVERRIDE arguments.
type LockArgs struct {
	Export          bool `json:"export"`
	OverrideAllowed bool `json:"override_allowed"`
}

// AdminCommandFailedPayload reports a rejected admin command.
type AdminCommandFailedPayload struct {
	CommandID string           `json:"command_id"`
	Type      AdminCommandType `json:"type"`
	Actor     string           `json:"actor"`
	ErrorKind string           `json:"error_kind"`
	Reason    string           `json:"reason"`
}

// MatchRecordingFailedPayload reports a match that was rejected permanently.
type MatchRecordingFailedPayload struct {
	MatchID   string `json:"match_id"`
	SeasonID  string `json:"season_id"`
	ErrorKind string `json:"error_kind"`
	Reason    string `json:"reason"`
}

// StandingsUpdatedPayload is a snapshot of one division table.
type StandingsUpdatedPayload struct {
	SeasonID   string                     `json:"season_id"`
	DivisionID string                     `json:"division_id"`
	Standings  []standingsdomain.Standing `json:"standings"`
	ComputedAt time.Time                  `json:"computed_at"`
}

// RatingHistoryAppendedPayload lists history rows appended by one write.
type RatingHistoryAppendedPayload struct {
	SeasonID string                         `json:"season_id"`
	Changes  []standingsdomain.RatingChange `json:"changes"`
}

// RecalculationResultPayload reports a job transition.
type RecalculationResultPayload struct {
	JobID                string                         `json:"job_id"`
	SeasonID             string                         `json:"season_id"`
	Scope                standingsdomain.Scope          `json:"scope"`
	TargetID             string                         `json:"target_id"`
	Status               string                         `json:"status"`
	AffectedPlayersCount int                            `json:"affected_players_count"`
	ChangesPreview       []standingsdomain.EntityChange `json:"changes_preview,omitempty"`
	ErrorMessage         string                         `json:"error_message,omitempty"`
}

// SeasonLockChangedPayload reports the lock state after a lock command.
type SeasonLockChangedPayload struct {
	CommandID       string    `json:"command_id,omitempty"`
	SeasonID        string    `json:"season_id"`
	IsLocked        bool      `json:"is_locked"`
	LockedBy        string    `json:"locked_by,omitempty"`
	LockedAt        time.Time `json:"locked_at,omitempty"`
	OverrideAllowed bool      `json:"override_allowed"`
	SnapshotRef     string    `json:"snapshot_ref,omitempty"`
}
