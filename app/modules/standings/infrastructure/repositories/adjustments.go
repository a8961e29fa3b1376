package standingsdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func (r *Impl) InsertAdjustment(ctx context.Context, db bun.IDB, adjustment *RatingAdjustment) error {
	if _, err := r.conn(db).NewInsert().Model(adjustment).Exec(ctx); err != nil {
		return fmt.Errorf("ratingadjustment.InsertAdjustment: %w", err)
	}
	return nil
}

func (r *Impl) ListSeasonAdjustments(ctx context.Context, db bun.IDB, seasonID string) ([]RatingAdjustment, error) {
	var adjustments []RatingAdjustment
	err := r.conn(db).NewSelect().
		Model(&adjustments).
		Where("season_id = ?", seasonID).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ratingadjustment.ListSeasonAdjustments: %w", err)
	}
	return adjustments, nil
}
