package standingsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

func (r *Impl) GetMatchOutcome(ctx context.Context, db bun.IDB, matchID string) (*MatchOutcome, error) {
	outcome := new(MatchOutcome)
	err := r.conn(db).NewSelect().
		Model(outcome).
		Where("match_id = ?", matchID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("matchoutcome.GetMatchOutcome: %w", err)
	}
	return outcome, nil
}

func (r *Impl) InsertMatchOutcome(ctx context.Context, db bun.IDB, outcome *MatchOutcome) error {
	if _, err := r.conn(db).NewInsert().Model(outcome).Exec(ctx); err != nil {
		if uniqueViolation(err) {
			return fmt.Errorf("matchoutcome.InsertMatchOutcome: %w", ErrUniqueViolation)
		}
		return fmt.Errorf("matchoutcome.InsertMatchOutcome: %w", err)
	}
	return nil
}

func (r *Impl) ListMatchOutcomes(ctx context.Context, db bun.IDB, seasonID string) ([]MatchOutcome, error) {
	var outcomes []MatchOutcome
	err := r.conn(db).NewSelect().
		Model(&outcomes).
		Where("season_id = ?", seasonID).
		Order("match_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("matchoutcome.ListMatchOutcomes: %w", err)
	}
	return outcomes, nil
}
