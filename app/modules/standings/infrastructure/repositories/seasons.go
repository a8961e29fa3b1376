package standingsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

func (r *Impl) GetSeasonLock(ctx context.Context, db bun.IDB, seasonID string) (*SeasonLock, error) {
	lock := new(SeasonLock)
	err := r.conn(db).NewSelect().
		Model(lock).
		Where("season_id = ?", seasonID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("seasonlock.GetSeasonLock: %w", err)
	}
	return lock, nil
}

func (r *Impl) UpsertSeasonLock(ctx context.Context, db bun.IDB, lock *SeasonLock) error {
	_, err := r.conn(db).NewInsert().
		Model(lock).
		On("CONFLICT (season_id) DO UPDATE").
		Set("is_locked = EXCLUDED.is_locked").
		Set("locked_by_admin = EXCLUDED.locked_by_admin").
		Set("locked_at = EXCLUDED.locked_at").
		Set("override_allowed = EXCLUDED.override_allowed").
		Set("snapshot_ref = EXCLUDED.snapshot_ref").
		Set("updated_at = current_timestamp").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("seasonlock.UpsertSeasonLock: %w", err)
	}
	return nil
}

func (r *Impl) GetSeasonComputation(ctx context.Context, db bun.IDB, seasonID string) (*SeasonComputation, error) {
	computation := new(SeasonComputation)
	err := r.conn(db).NewSelect().
		Model(computation).
		Where("season_id = ?", seasonID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("seasoncomputation.GetSeasonComputation: %w", err)
	}
	return computation, nil
}

func (r *Impl) TouchSeasonComputation(ctx context.Context, db bun.IDB, computation *SeasonComputation) error {
	_, err := r.conn(db).NewInsert().
		Model(computation).
		On("CONFLICT (season_id) DO UPDATE").
		Set("last_computed_at = EXCLUDED.last_computed_at").
		Set("source = EXCLUDED.source").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("seasoncomputation.TouchSeasonComputation: %w", err)
	}
	return nil
}
