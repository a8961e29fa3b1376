package standingsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

func (r *Impl) GetActiveParameters(ctx context.Context, db bun.IDB) (*RatingParameters, error) {
	params := new(RatingParameters)
	err := r.conn(db).NewSelect().
		Model(params).
		Where("is_active = ?", true).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ratingparameters.GetActiveParameters: %w", err)
	}
	return params, nil
}

func (r *Impl) LatestParametersVersion(ctx context.Context, db bun.IDB) (int, error) {
	var version int
	err := r.conn(db).NewSelect().
		Model((*RatingParameters)(nil)).
		ColumnExpr("COALESCE(MAX(version), 0)").
		Scan(ctx, &version)
	if err != nil {
		return 0, fmt.Errorf("ratingparameters.LatestParametersVersion: %w", err)
	}
	return version, nil
}

// ActivateParameters only ever flips is_active on older rows; their values
// stay as published.
func (r *Impl) ActivateParameters(ctx context.Context, db bun.IDB, params *RatingParameters) error {
	conn := r.conn(db)
	_, err := conn.NewUpdate().
		Model((*RatingParameters)(nil)).
		Set("is_active = ?", false).
		Where("is_active = ?", true).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ratingparameters.ActivateParameters: deactivate: %w", err)
	}
	params.IsActive = true
	if _, err := conn.NewInsert().Model(params).Exec(ctx); err != nil {
		if uniqueViolation(err) {
			return fmt.Errorf("ratingparameters.ActivateParameters: %w", ErrUniqueViolation)
		}
		return fmt.Errorf("ratingparameters.ActivateParameters: insert: %w", err)
	}
	return nil
}
