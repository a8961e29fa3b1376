package standingsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

func (r *Impl) GetPlayerRating(ctx context.Context, db bun.IDB, seasonID, playerID string) (*PlayerRating, error) {
	rating := new(PlayerRating)
	err := r.conn(db).NewSelect().
		Model(rating).
		Where("season_id = ?", seasonID).
		Where("player_id = ?", playerID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("playerrating.GetPlayerRating: %w", err)
	}
	return rating, nil
}

func (r *Impl) GetPlayerRatings(ctx context.Context, db bun.IDB, seasonID string, playerIDs []string) (map[string]*PlayerRating, error) {
	out := make(map[string]*PlayerRating, len(playerIDs))
	if len(playerIDs) == 0 {
		return out, nil
	}
	var ratings []*PlayerRating
	err := r.conn(db).NewSelect().
		Model(&ratings).
		Where("season_id = ?", seasonID).
		Where("player_id IN (?)", bun.In(playerIDs)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("playerrating.GetPlayerRatings: %w", err)
	}
	for _, rating := range ratings {
		out[rating.PlayerID] = rating
	}
	return out, nil
}

func (r *Impl) ListSeasonRatings(ctx context.Context, db bun.IDB, seasonID string) ([]PlayerRating, error) {
	var ratings []PlayerRating
	err := r.conn(db).NewSelect().
		Model(&ratings).
		Where("season_id = ?", seasonID).
		Order("current_rating DESC", "player_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("playerrating.ListSeasonRatings: %w", err)
	}
	return ratings, nil
}

func (r *Impl) UpsertPlayerRatings(ctx context.Context, db bun.IDB, ratings []*PlayerRating) error {
	if len(ratings) == 0 {
		return nil
	}
	_, err := r.conn(db).NewInsert().
		Model(&ratings).
		On("CONFLICT (season_id, player_id) DO UPDATE").
		Set("current_rating = EXCLUDED.current_rating").
		Set("rating_deviation = EXCLUDED.rating_deviation").
		Set("volatility = EXCLUDED.volatility").
		Set("matches_played = EXCLUDED.matches_played").
		Set("is_provisional = EXCLUDED.is_provisional").
		Set("peak_rating = EXCLUDED.peak_rating").
		Set("peak_rating_date = EXCLUDED.peak_rating_date").
		Set("lowest_rating = EXCLUDED.lowest_rating").
		Set("updated_at = current_timestamp").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("playerrating.UpsertPlayerRatings: %w", err)
	}
	return nil
}

func (r *Impl) DeletePlayerRatings(ctx context.Context, db bun.IDB, seasonID string, playerIDs []string) error {
	if len(playerIDs) == 0 {
		return nil
	}
	_, err := r.conn(db).NewDelete().
		Model((*PlayerRating)(nil)).
		Where("season_id = ?", seasonID).
		Where("player_id IN (?)", bun.In(playerIDs)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("playerrating.DeletePlayerRatings: %w", err)
	}
	return nil
}
