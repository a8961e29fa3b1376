package standingsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func (r *Impl) InsertRecalculation(ctx context.Context, db bun.IDB, job *RatingRecalculation) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if _, err := r.conn(db).NewInsert().Model(job).Exec(ctx); err != nil {
		if uniqueViolation(err) {
			return fmt.Errorf("recalculation.InsertRecalculation: %w", ErrUniqueViolation)
		}
		return fmt.Errorf("recalculation.InsertRecalculation: %w", err)
	}
	return nil
}

func (r *Impl) GetRecalculation(ctx context.Context, db bun.IDB, id uuid.UUID) (*RatingRecalculation, error) {
	return r.getRecalculation(ctx, db, id, false)
}

func (r *Impl) GetRecalculationForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*RatingRecalculation, error) {
	return r.getRecalculation(ctx, db, id, true)
}

func (r *Impl) getRecalculation(ctx context.Context, db bun.IDB, id uuid.UUID, forUpdate bool) (*RatingRecalculation, error) {
	job := new(RatingRecalculation)
	q := r.conn(db).NewSelect().
		Model(job).
		Where("id = ?", id)
	if forUpdate {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("recalculation.GetRecalculation: %w", err)
	}
	return job, nil
}

func (r *Impl) FindOpenRecalculation(ctx context.Context, db bun.IDB, seasonID string, scope standingsdomain.Scope, targetID string) (*RatingRecalculation, error) {
	job := new(RatingRecalculation)
	err := r.conn(db).NewSelect().
		Model(job).
		Where("season_id = ?", seasonID).
		Where("scope = ?", scope).
		Where("target_id = ?", targetID).
		Where("status IN (?)", bun.In([]RecalculationStatus{RecalcPending, RecalcPreviewReady})).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("recalculation.FindOpenRecalculation: %w", err)
	}
	return job, nil
}

func (r *Impl) UpdateRecalculation(ctx context.Context, db bun.IDB, job *RatingRecalculation) error {
	job.UpdatedAt = time.Now().UTC()
	res, err := r.conn(db).NewUpdate().
		Model(job).
		WherePK().
		ExcludeColumn("id", "created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("recalculation.UpdateRecalculation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("recalculation.UpdateRecalculation: %w", ErrNoRowsAffected)
	}
	return nil
}
