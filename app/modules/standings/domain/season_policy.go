package standingsdomain

import "time"

// SeasonLock is the freeze state of a season.
type SeasonLock struct {
	SeasonID        string
	IsLocked        bool
	LockedBy        string
	LockedAt        time.Time
	OverrideAllowed bool
	SnapshotRef     string
}

// WritePurpose identifies who is asking to write derived data.
type WritePurpose string

const (
	WriteLiveResult    WritePurpose = "live_result"
	WriteRecalculation WritePurpose = "recalculation"
	WriteAdjustment    WritePurpose = "adjustment"
)

// CheckSeasonWritable decides whether a write may proceed.
//
// Rules:
//   - No lock, or an unlocked one, admits every writer.
//   - A locked season never admits live results.
//   - Admin writers (recalculation, adjustment) pass only when the lock
//     explicitly allows an override.
func CheckSeasonWritable(lock *SeasonLock, purpose WritePurpose) error {
	if lock == nil || !lock.IsLocked {
		return nil
	}
	if purpose != WriteLiveResult && lock.OverrideAllowed {
		return nil
	}
	return StateError(ErrSeasonLocked, "season %s is locked (%s rejected)", lock.SeasonID, purpose)
}
