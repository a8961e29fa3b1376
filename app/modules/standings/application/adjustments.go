package standingsservice

import (
	"context"
	"fmt"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	standingsdb "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories"
	"github.com/Black-And-White-Club/rally-league/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// GrantAdjustment sets a player's rating by hand. The adjustment row and its
// history entry are written together; matchesPlayed and the provisional flag
// are left alone.
func (s *StandingsService) GrantAdjustment(ctx context.Context, req AdjustmentRequest) (results.OperationResult[AdjustmentGranted, error], error) {
	return withTelemetry(s, ctx, "GrantAdjustment", req.SeasonID, func(ctx context.Context) (results.OperationResult[AdjustmentGranted, error], error) {
		granted, err := s.grantAdjustment(ctx, req)
		if err == nil {
			s.metrics.RecordRatingDelta(ctx, string(standingsdomain.ReasonAdjustment), granted.Change.Delta)
		}
		return settle(granted, err)
	})
}

func (s *StandingsService) grantAdjustment(ctx context.Context, req AdjustmentRequest) (AdjustmentGranted, error) {
	if err := validateAdjustment(req); err != nil {
		return AdjustmentGranted{}, err
	}
	if err := s.requireAdmin(ctx, req.AdminID); err != nil {
		return AdjustmentGranted{}, err
	}

	return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (AdjustmentGranted, error) {
		if err := s.repo.AcquireSeasonSharedLock(ctx, db, req.SeasonID); err != nil {
			return AdjustmentGranted{}, fmt.Errorf("failed to lock season: %w", err)
		}
		if err := s.repo.AcquireEntityLocks(ctx, db, req.SeasonID, []string{req.PlayerID}); err != nil {
			return AdjustmentGranted{}, fmt.Errorf("failed to lock player: %w", err)
		}

		lock, err := s.repo.GetSeasonLock(ctx, db, req.SeasonID)
		if err != nil {
			return AdjustmentGranted{}, fmt.Errorf("failed to load season lock: %w", err)
		}
		if err := standingsdomain.CheckSeasonWritable(lock.ToDomain(), standingsdomain.WriteAdjustment); err != nil {
			return AdjustmentGranted{}, err
		}

		params, err := s.activeParameters(ctx, db)
		if err != nil {
			return AdjustmentGranted{}, err
		}
		if req.NewRating < params.RatingFloor {
			return AdjustmentGranted{}, standingsdomain.ValidationError(ErrInvalidRequest,
				"rating %d is below the floor %d", req.NewRating, params.RatingFloor)
		}

		stored, err := s.repo.GetPlayerRating(ctx, db, req.SeasonID, req.PlayerID)
		if err != nil {
			return AdjustmentGranted{}, fmt.Errorf("failed to load rating: %w", err)
		}
		if stored == nil {
			return AdjustmentGranted{}, standingsdomain.StateError(standingsdomain.ErrNotFound,
				"player %s has no rating in season %s", req.PlayerID, req.SeasonID)
		}

		now := s.now()
		id := uuid.New()
		rating := stored.ToDomain()
		change := standingsdomain.ApplyAdjustment(&rating, req.NewRating, id.String(), req.Reason, now)

		updated := standingsdb.RatingFromDomain(rating)
		updated.ID = stored.ID
		if err := s.repo.UpsertPlayerRatings(ctx, db, []*standingsdb.PlayerRating{updated}); err != nil {
			return AdjustmentGranted{}, fmt.Errorf("failed to store rating: %w", err)
		}

		if err := s.repo.InsertAdjustment(ctx, db, &standingsdb.RatingAdjustment{
			ID:             id,
			PlayerRatingID: stored.ID,
			SeasonID:       req.SeasonID,
			PlayerID:       req.PlayerID,
			AdminID:        req.AdminID,
			Type:           req.Type,
			RatingBefore:   change.RatingBefore,
			RatingAfter:    change.RatingAfter,
			Delta:          change.Delta,
			Reason:         req.Reason,
			CreatedAt:      now,
		}); err != nil {
			return AdjustmentGranted{}, fmt.Errorf("failed to store adjustment: %w", err)
		}

		if err := s.appendHistory(ctx, db, req.SeasonID, []standingsdomain.RatingChange{change}); err != nil {
			return AdjustmentGranted{}, err
		}

		if err := s.repo.TouchSeasonComputation(ctx, db, &standingsdb.SeasonComputation{
			SeasonID:       req.SeasonID,
			LastComputedAt: now,
			Source:         standingsdb.SourceAdjustment,
		}); err != nil {
			return AdjustmentGranted{}, fmt.Errorf("failed to stamp season computation: %w", err)
		}

		return AdjustmentGranted{AdjustmentID: id, Change: change, Rating: rating}, nil
	})
}

func validateAdjustment(req AdjustmentRequest) error {
	switch {
	case req.SeasonID == "":
		return standingsdomain.ValidationError(ErrInvalidRequest, "season id is required")
	case req.PlayerID == "":
		return standingsdomain.ValidationError(ErrInvalidRequest, "player id is required")
	case req.Reason == "":
		return standingsdomain.ValidationError(ErrInvalidRequest, "reason is required")
	}
	switch req.Type {
	case standingsdb.AdjustmentCorrection, standingsdb.AdjustmentAppealResolution,
		standingsdb.AdjustmentAdminOverride, standingsdb.AdjustmentMigration:
		return nil
	}
	return standingsdomain.ValidationError(ErrInvalidRequest, "unknown adjustment type %q", req.Type)
}
