package standingsdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func (r *Impl) ReplaceDivisionStandings(ctx context.Context, db bun.IDB, seasonID, divisionID string, standings []DivisionStanding) error {
	conn := r.conn(db)
	_, err := conn.NewDelete().
		Model((*DivisionStanding)(nil)).
		Where("season_id = ?", seasonID).
		Where("division_id = ?", divisionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("divisionstanding.ReplaceDivisionStandings: delete: %w", err)
	}
	if len(standings) == 0 {
		return nil
	}
	if _, err := conn.NewInsert().Model(&standings).Exec(ctx); err != nil {
		return fmt.Errorf("divisionstanding.ReplaceDivisionStandings: insert: %w", err)
	}
	return nil
}

func (r *Impl) ListDivisionStandings(ctx context.Context, db bun.IDB, seasonID, divisionID string) ([]DivisionStanding, error) {
	var standings []DivisionStanding
	err := r.conn(db).NewSelect().
		Model(&standings).
		Where("season_id = ?", seasonID).
		Where("division_id = ?", divisionID).
		Order("rank ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("divisionstanding.ListDivisionStandings: %w", err)
	}
	return standings, nil
}

func (r *Impl) ListSeasonStandings(ctx context.Context, db bun.IDB, seasonID string) ([]DivisionStanding, error) {
	var standings []DivisionStanding
	err := r.conn(db).NewSelect().
		Model(&standings).
		Where("season_id = ?", seasonID).
		Order("division_id ASC", "rank ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("divisionstanding.ListSeasonStandings: %w", err)
	}
	return standings, nil
}

func (r *Impl) SetStandingsLocked(ctx context.Context, db bun.IDB, seasonID string, locked bool) error {
	_, err := r.conn(db).NewUpdate().
		Model((*DivisionStanding)(nil)).
		Set("is_locked = ?", locked).
		Set("updated_at = current_timestamp").
		Where("season_id = ?", seasonID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("divisionstanding.SetStandingsLocked: %w", err)
	}
	return nil
}
