package standingsservice

import (
	"context"
	"errors"
	"fmt"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	standingsdb "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories"
	"github.com/Black-And-White-Club/rally-league/pkg/results"
	"github.com/uptrace/bun"
)

// parametersSubject labels parameter operations in metrics.
const parametersSubject = "parameters"

// PublishParameters stores params as the next version and makes it the only
// active one. Earlier versions keep their values.
func (s *StandingsService) PublishParameters(ctx context.Context, params standingsdomain.RatingParameters, publishedBy string) (results.OperationResult[standingsdomain.RatingParameters, error], error) {
	return withTelemetry(s, ctx, "PublishParameters", parametersSubject, func(ctx context.Context) (results.OperationResult[standingsdomain.RatingParameters, error], error) {
		return settle(s.publishParameters(ctx, params, publishedBy))
	})
}

func (s *StandingsService) publishParameters(ctx context.Context, params standingsdomain.RatingParameters, publishedBy string) (standingsdomain.RatingParameters, error) {
	if err := params.Validate(); err != nil {
		return standingsdomain.RatingParameters{}, err
	}
	if err := s.requireAdmin(ctx, publishedBy); err != nil {
		return standingsdomain.RatingParameters{}, err
	}

	return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (standingsdomain.RatingParameters, error) {
		latest, err := s.repo.LatestParametersVersion(ctx, db)
		if err != nil {
			return standingsdomain.RatingParameters{}, fmt.Errorf("failed to read parameter versions: %w", err)
		}
		params.Version = latest + 1
		if params.EffectiveFrom.IsZero() {
			params.EffectiveFrom = s.now()
		}

		row := standingsdb.ParametersFromDomain(params)
		row.PublishedBy = publishedBy
		if err := s.repo.ActivateParameters(ctx, db, row); err != nil {
			if errors.Is(err, standingsdb.ErrUniqueViolation) {
				return standingsdomain.RatingParameters{}, standingsdomain.StateError(standingsdomain.ErrConflict,
					"parameter version %d was published concurrently", params.Version)
			}
			return standingsdomain.RatingParameters{}, fmt.Errorf("failed to activate parameters: %w", err)
		}
		return row.ToDomain(), nil
	})
}

// GetActiveParameters returns the active parameter version.
func (s *StandingsService) GetActiveParameters(ctx context.Context) (results.OperationResult[standingsdomain.RatingParameters, error], error) {
	return withTelemetry(s, ctx, "GetActiveParameters", parametersSubject, func(ctx context.Context) (results.OperationResult[standingsdomain.RatingParameters, error], error) {
		return settle(s.activeParameters(ctx, nil))
	})
}
