package standingsdb

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

func (r *Impl) CountEntityResults(ctx context.Context, db bun.IDB, seasonID string, entityIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(entityIDs))
	if len(entityIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		EntityID string `bun:"entity_id"`
		Count    int    `bun:"count"`
	}
	err := r.conn(db).NewSelect().
		Model((*MatchResult)(nil)).
		Column("entity_id").
		ColumnExpr("COUNT(*) AS count").
		Where("season_id = ?", seasonID).
		Where("entity_id IN (?)", bun.In(entityIDs)).
		Group("entity_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("matchresult.CountEntityResults: %w", err)
	}
	for _, row := range rows {
		counts[row.EntityID] = row.Count
	}
	return counts, nil
}

func (r *Impl) InsertMatchResults(ctx context.Context, db bun.IDB, results []MatchResult) error {
	if len(results) == 0 {
		return nil
	}
	if _, err := r.conn(db).NewInsert().Model(&results).Exec(ctx); err != nil {
		if uniqueViolation(err) {
			return fmt.Errorf("matchresult.InsertMatchResults: %w", ErrUniqueViolation)
		}
		return fmt.Errorf("matchresult.InsertMatchResults: %w", err)
	}
	return nil
}

func (r *Impl) ListDivisionResults(ctx context.Context, db bun.IDB, seasonID, divisionID string) ([]MatchResult, error) {
	var results []MatchResult
	err := r.conn(db).NewSelect().
		Model(&results).
		Where("season_id = ?", seasonID).
		Where("division_id = ?", divisionID).
		Order("entity_id ASC", "result_sequence ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("matchresult.ListDivisionResults: %w", err)
	}
	return results, nil
}

func (r *Impl) ListSeasonResults(ctx context.Context, db bun.IDB, seasonID string) ([]MatchResult, error) {
	var results []MatchResult
	err := r.conn(db).NewSelect().
		Model(&results).
		Where("season_id = ?", seasonID).
		Order("entity_id ASC", "result_sequence ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("matchresult.ListSeasonResults: %w", err)
	}
	return results, nil
}

func (r *Impl) UpdateCountedFlags(ctx context.Context, db bun.IDB, results []MatchResult) error {
	if len(results) == 0 {
		return nil
	}
	conn := r.conn(db)
	values := conn.NewValues(&results)
	_, err := conn.NewUpdate().
		With("_data", values).
		Model((*MatchResult)(nil)).
		TableExpr("_data").
		Set("counts_for_standings = _data.counts_for_standings").
		Where("mr.id = _data.id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("matchresult.UpdateCountedFlags: %w", err)
	}
	return nil
}

func (r *Impl) DeleteEntityResults(ctx context.Context, db bun.IDB, seasonID string, entityIDs []string) error {
	if len(entityIDs) == 0 {
		return nil
	}
	_, err := r.conn(db).NewDelete().
		Model((*MatchResult)(nil)).
		Where("season_id = ?", seasonID).
		Where("entity_id IN (?)", bun.In(entityIDs)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("matchresult.DeleteEntityResults: %w", err)
	}
	return nil
}

func (r *Impl) HasLaterActivity(ctx context.Context, db bun.IDB, seasonID string, playerIDs []string, pos MatchPosition) (bool, error) {
	if len(playerIDs) == 0 {
		return false, nil
	}

	later, err := r.conn(db).NewSelect().
		Model((*MatchResult)(nil)).
		Where("season_id = ?", seasonID).
		Where("entity_id IN (?)", bun.In(playerIDs)).
		Where("(date_played, COALESCE(match_created_at, ?), match_id) > (?, ?, ?)",
			time.Time{}, pos.DatePlayed, pos.CreatedAt, pos.MatchID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("matchresult.HasLaterActivity: %w", err)
	}
	if later {
		return true, nil
	}

	adjusted, err := r.conn(db).NewSelect().
		Model((*RatingAdjustment)(nil)).
		Where("season_id = ?", seasonID).
		Where("player_id IN (?)", bun.In(playerIDs)).
		Where("created_at > ?", pos.DatePlayed).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("ratingadjustment.HasLaterActivity: %w", err)
	}
	return adjusted, nil
}
