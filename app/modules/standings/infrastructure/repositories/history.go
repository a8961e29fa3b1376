package standingsdb

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func (r *Impl) LatestHistorySequences(ctx context.Context, db bun.IDB, seasonID string, playerIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(playerIDs))
	if len(playerIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		PlayerID string `bun:"player_id"`
		Sequence int    `bun:"sequence"`
	}
	err := r.conn(db).NewSelect().
		Model((*RatingHistory)(nil)).
		Column("player_id").
		ColumnExpr("MAX(sequence) AS sequence").
		Where("season_id = ?", seasonID).
		Where("player_id IN (?)", bun.In(playerIDs)).
		Group("player_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("ratinghistory.LatestHistorySequences: %w", err)
	}
	for _, row := range rows {
		out[row.PlayerID] = row.Sequence
	}
	return out, nil
}

func (r *Impl) InsertRatingHistory(ctx context.Context, db bun.IDB, entries []RatingHistory) error {
	if len(entries) == 0 {
		return nil
	}
	if _, err := r.conn(db).NewInsert().Model(&entries).Exec(ctx); err != nil {
		return fmt.Errorf("ratinghistory.InsertRatingHistory: %w", err)
	}
	return nil
}

func (r *Impl) ListRatingHistory(ctx context.Context, db bun.IDB, seasonID, playerID string) ([]RatingHistory, error) {
	var entries []RatingHistory
	err := r.conn(db).NewSelect().
		Model(&entries).
		Where("season_id = ?", seasonID).
		Where("player_id = ?", playerID).
		Order("sequence ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ratinghistory.ListRatingHistory: %w", err)
	}
	return entries, nil
}

func (r *Impl) ListSeasonRatingHistory(ctx context.Context, db bun.IDB, seasonID string) ([]RatingHistory, error) {
	var entries []RatingHistory
	err := r.conn(db).NewSelect().
		Model(&entries).
		Where("season_id = ?", seasonID).
		Order("player_id ASC", "sequence ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ratinghistory.ListSeasonRatingHistory: %w", err)
	}
	return entries, nil
}

func (r *Impl) DeleteRatingHistory(ctx context.Context, db bun.IDB, seasonID string, playerIDs []string) error {
	if len(playerIDs) == 0 {
		return nil
	}
	_, err := r.conn(db).NewDelete().
		Model((*RatingHistory)(nil)).
		Where("season_id = ?", seasonID).
		Where("player_id IN (?)", bun.In(playerIDs)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ratinghistory.DeleteRatingHistory: %w", err)
	}
	return nil
}
