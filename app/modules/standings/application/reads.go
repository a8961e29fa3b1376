package standingsservice

import (
	"context"
	"fmt"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	"github.com/Black-And-White-Club/rally-league/pkg/results"
)

// GetDivisionStandings returns a division's table in rank order.
func (s *StandingsService) GetDivisionStandings(ctx context.Context, seasonID, divisionID string) (results.OperationResult[[]standingsdomain.Standing, error], error) {
	return withTelemetry(s, ctx, "GetDivisionStandings", seasonID, func(ctx context.Context) (results.OperationResult[[]standingsdomain.Standing, error], error) {
		rows, err := s.repo.ListDivisionStandings(ctx, nil, seasonID, divisionID)
		if err != nil {
			return results.OperationResult[[]standingsdomain.Standing, error]{}, fmt.Errorf("failed to load standings: %w", err)
		}
		standings := make([]standingsdomain.Standing, len(rows))
		for i, r := range rows {
			standings[i] = r.ToDomain()
		}
		return results.SuccessResult[[]standingsdomain.Standing, error](standings), nil
	})
}

// GetPlayerRating returns a player's current rating.
func (s *StandingsService) GetPlayerRating(ctx context.Context, seasonID, playerID string) (results.OperationResult[standingsdomain.PlayerRating, error], error) {
	return withTelemetry(s, ctx, "GetPlayerRating", seasonID, func(ctx context.Context) (results.OperationResult[standingsdomain.PlayerRating, error], error) {
		row, err := s.repo.GetPlayerRating(ctx, nil, seasonID, playerID)
		if err != nil {
			return results.OperationResult[standingsdomain.PlayerRating, error]{}, fmt.Errorf("failed to load rating: %w", err)
		}
		if row == nil {
			return settle(standingsdomain.PlayerRating{}, standingsdomain.ValidationError(standingsdomain.ErrNotFound,
				"player %s has no rating in season %s", playerID, seasonID))
		}
		return results.SuccessResult[standingsdomain.PlayerRating, error](row.ToDomain()), nil
	})
}

// GetRatingHistory returns a player's rating history in sequence order.
func (s *StandingsService) GetRatingHistory(ctx context.Context, seasonID, playerID string) (results.OperationResult[[]standingsdomain.RatingChange, error], error) {
	return withTelemetry(s, ctx, "GetRatingHistory", seasonID, func(ctx context.Context) (results.OperationResult[[]standingsdomain.RatingChange, error], error) {
		history, err := s.ratingHistory(ctx, seasonID, playerID)
		if err != nil {
			return results.OperationResult[[]standingsdomain.RatingChange, error]{}, err
		}
		return results.SuccessResult[[]standingsdomain.RatingChange, error](history), nil
	})
}

// RenderRatingChart draws a player's rating history as a PNG.
func (s *StandingsService) RenderRatingChart(ctx context.Context, seasonID, playerID string) (results.OperationResult[[]byte, error], error) {
	return withTelemetry(s, ctx, "RenderRatingChart", seasonID, func(ctx context.Context) (results.OperationResult[[]byte, error], error) {
		history, err := s.ratingHistory(ctx, seasonID, playerID)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, err
		}
		if len(history) == 0 {
			return settle[[]byte](nil, standingsdomain.ValidationError(standingsdomain.ErrNotFound,
				"player %s has no rating history in season %s", playerID, seasonID))
		}
		png, err := GenerateRatingChart(history, DefaultChartPalette)
		if err != nil {
			return results.OperationResult[[]byte, error]{}, fmt.Errorf("failed to render chart: %w", err)
		}
		return results.SuccessResult[[]byte, error](png), nil
	})
}

// GetSeasonStatus reports a season's lock state and when its derived data
// was last computed, so staleness is never silent.
func (s *StandingsService) GetSeasonStatus(ctx context.Context, seasonID string) (results.OperationResult[SeasonStatus, error], error) {
	return withTelemetry(s, ctx, "GetSeasonStatus", seasonID, func(ctx context.Context) (results.OperationResult[SeasonStatus, error], error) {
		status := SeasonStatus{
			SeasonID: seasonID,
			Lock:     standingsdomain.SeasonLock{SeasonID: seasonID},
		}

		lock, err := s.repo.GetSeasonLock(ctx, nil, seasonID)
		if err != nil {
			return results.OperationResult[SeasonStatus, error]{}, fmt.Errorf("failed to load season lock: %w", err)
		}
		if lock != nil {
			status.Lock = *lock.ToDomain()
		}

		computation, err := s.repo.GetSeasonComputation(ctx, nil, seasonID)
		if err != nil {
			return results.OperationResult[SeasonStatus, error]{}, fmt.Errorf("failed to load season computation: %w", err)
		}
		if computation != nil {
			status.LastComputedAt = computation.LastComputedAt
			status.Source = computation.Source
		}

		params, err := s.repo.GetActiveParameters(ctx, nil)
		if err != nil {
			return results.OperationResult[SeasonStatus, error]{}, fmt.Errorf("failed to load rating parameters: %w", err)
		}
		if params != nil {
			status.ParametersVersion = params.Version
		}

		return results.SuccessResult[SeasonStatus, error](status), nil
	})
}

func (s *StandingsService) ratingHistory(ctx context.Context, seasonID, playerID string) ([]standingsdomain.RatingChange, error) {
	rows, err := s.repo.ListRatingHistory(ctx, nil, seasonID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating history: %w", err)
	}
	history := make([]standingsdomain.RatingChange, len(rows))
	for i, r := range rows {
		history[i] = r.ToDomain()
	}
	return history, nil
}
