package standingsservice

import (
	"context"
	"fmt"
	"time"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	standingsdb "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories"
	"github.com/Black-And-White-Club/rally-league/app/observability/attr"
	"github.com/Black-And-White-Club/rally-league/pkg/results"
	"github.com/uptrace/bun"
)

// LockSeason freezes a season. Live results are rejected from then on;
// admin writes need an explicit override. Locking an already locked season
// returns the existing lock.
func (s *StandingsService) LockSeason(ctx context.Context, req LockRequest) (results.OperationResult[standingsdomain.SeasonLock, error], error) {
	return withTelemetry(s, ctx, "LockSeason", req.SeasonID, func(ctx context.Context) (results.OperationResult[standingsdomain.SeasonLock, error], error) {
		return settle(s.lockSeason(ctx, req))
	})
}

func (s *StandingsService) lockSeason(ctx context.Context, req LockRequest) (standingsdomain.SeasonLock, error) {
	if req.SeasonID == "" {
		return standingsdomain.SeasonLock{}, standingsdomain.ValidationError(ErrInvalidRequest, "season id is required")
	}
	if err := s.requireAdmin(ctx, req.AdminID); err != nil {
		return standingsdomain.SeasonLock{}, err
	}
	if req.Export && s.snapshots == nil {
		return standingsdomain.SeasonLock{}, standingsdomain.ConfigurationError(ErrSnapshotsDisabled, "cannot export season %s", req.SeasonID)
	}

	return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (standingsdomain.SeasonLock, error) {
		if err := s.repo.AcquireSeasonExclusiveLock(ctx, db, req.SeasonID); err != nil {
			return standingsdomain.SeasonLock{}, fmt.Errorf("failed to lock season: %w", err)
		}
		existing, err := s.repo.GetSeasonLock(ctx, db, req.SeasonID)
		if err != nil {
			return standingsdomain.SeasonLock{}, fmt.Errorf("failed to load season lock: %w", err)
		}
		if existing != nil && existing.IsLocked {
			return *existing.ToDomain(), nil
		}

		now := s.now()
		lock := &standingsdb.SeasonLock{
			SeasonID:      req.SeasonID,
			IsLocked:      true,
			LockedByAdmin: req.AdminID,
			LockedAt:      now,
			UpdatedAt:     now,
		}

		if err := s.repo.SetStandingsLocked(ctx, db, req.SeasonID, true); err != nil {
			return standingsdomain.SeasonLock{}, fmt.Errorf("failed to lock standings: %w", err)
		}

		if req.Export {
			data, err := s.buildExport(ctx, db, req.SeasonID)
			if err != nil {
				return standingsdomain.SeasonLock{}, err
			}
			ref, err := s.snapshots.Put(ctx, snapshotKey(req.SeasonID, now), data, xlsxContentType)
			if err != nil {
				return standingsdomain.SeasonLock{}, fmt.Errorf("failed to store season snapshot: %w", err)
			}
			lock.SnapshotRef = ref
			s.logger.InfoContext(ctx, "Season snapshot stored",
				attr.ExtractCorrelationID(ctx),
				attr.SeasonID(req.SeasonID),
				attr.String("snapshot_ref", ref),
			)
		}

		if err := s.repo.UpsertSeasonLock(ctx, db, lock); err != nil {
			return standingsdomain.SeasonLock{}, fmt.Errorf("failed to store season lock: %w", err)
		}
		return *lock.ToDomain(), nil
	})
}

// SetLockOverride allows or withdraws admin writes into a locked season.
func (s *StandingsService) SetLockOverride(ctx context.Context, seasonID, adminID string, allowed bool) (results.OperationResult[standingsdomain.SeasonLock, error], error) {
	return withTelemetry(s, ctx, "SetLockOverride", seasonID, func(ctx context.Context) (results.OperationResult[standingsdomain.SeasonLock, error], error) {
		return settle(s.updateLock(ctx, seasonID, adminID, func(ctx context.Context, db bun.IDB, lock *standingsdb.SeasonLock) error {
			lock.OverrideAllowed = allowed
			return nil
		}))
	})
}

// UnlockSeason reopens a season to live results.
func (s *StandingsService) UnlockSeason(ctx context.Context, seasonID, adminID string) (results.OperationResult[standingsdomain.SeasonLock, error], error) {
	return withTelemetry(s, ctx, "UnlockSeason", seasonID, func(ctx context.Context) (results.OperationResult[standingsdomain.SeasonLock, error], error) {
		return settle(s.updateLock(ctx, seasonID, adminID, func(ctx context.Context, db bun.IDB, lock *standingsdb.SeasonLock) error {
			lock.IsLocked = false
			lock.OverrideAllowed = false
			if err := s.repo.SetStandingsLocked(ctx, db, seasonID, false); err != nil {
				return fmt.Errorf("failed to unlock standings: %w", err)
			}
			return nil
		}))
	})
}

// updateLock mutates an existing lock under the exclusive season lock.
func (s *StandingsService) updateLock(
	ctx context.Context,
	seasonID, adminID string,
	mutate func(ctx context.Context, db bun.IDB, lock *standingsdb.SeasonLock) error,
) (standingsdomain.SeasonLock, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return standingsdomain.SeasonLock{}, err
	}

	return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (standingsdomain.SeasonLock, error) {
		if err := s.repo.AcquireSeasonExclusiveLock(ctx, db, seasonID); err != nil {
			return standingsdomain.SeasonLock{}, fmt.Errorf("failed to lock season: %w", err)
		}
		lock, err := s.repo.GetSeasonLock(ctx, db, seasonID)
		if err != nil {
			return standingsdomain.SeasonLock{}, fmt.Errorf("failed to load season lock: %w", err)
		}
		if lock == nil || !lock.IsLocked {
			return standingsdomain.SeasonLock{}, standingsdomain.StateError(standingsdomain.ErrIllegalTransition, "season %s is not locked", seasonID)
		}
		if err := mutate(ctx, db, lock); err != nil {
			return standingsdomain.SeasonLock{}, err
		}
		lock.UpdatedAt = s.now()
		if err := s.repo.UpsertSeasonLock(ctx, db, lock); err != nil {
			return standingsdomain.SeasonLock{}, fmt.Errorf("failed to store season lock: %w", err)
		}
		return *lock.ToDomain(), nil
	})
}

func snapshotKey(seasonID string, at time.Time) string {
	return fmt.Sprintf("seasons/%s/%s.xlsx", seasonID, at.Format("20060102T150405Z"))
}
