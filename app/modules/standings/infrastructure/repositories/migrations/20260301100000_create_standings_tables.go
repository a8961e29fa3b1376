package standingsmigrations

import (
	"context"
	"fmt"

	standingsdb "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating league standings and rating tables...")

		models := []any{
			(*standingsdb.MatchOutcome)(nil),
			(*standingsdb.MatchResult)(nil),
			(*standingsdb.DivisionStanding)(nil),
			(*standingsdb.PlayerRating)(nil),
			(*standingsdb.RatingHistory)(nil),
			(*standingsdb.RatingAdjustment)(nil),
			(*standingsdb.RatingRecalculation)(nil),
			(*standingsdb.RatingParameters)(nil),
			(*standingsdb.SeasonLock)(nil),
			(*standingsdb.SeasonComputation)(nil),
		}
		for _, model := range models {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}

		indexes := []string{
			"CREATE INDEX IF NOT EXISTS idx_match_outcomes_season ON league_match_outcomes (season_id)",
			"CREATE INDEX IF NOT EXISTS idx_match_results_division ON league_match_results (season_id, division_id, entity_id, result_sequence)",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_match_results_sequence ON league_match_results (season_id, entity_id, result_sequence)",
			"CREATE INDEX IF NOT EXISTS idx_division_standings_rank ON league_division_standings (season_id, division_id, rank)",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_rating_history_sequence ON league_rating_history (season_id, player_id, sequence)",
			"CREATE INDEX IF NOT EXISTS idx_rating_history_match ON league_rating_history (match_id) WHERE match_id IS NOT NULL",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_rating_history_adjustment ON league_rating_history (adjustment_id) WHERE adjustment_id IS NOT NULL",
			"CREATE INDEX IF NOT EXISTS idx_rating_adjustments_season ON league_rating_adjustments (season_id, player_id)",
			// At most one open job per scope and target.
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_recalculations_open ON league_rating_recalculations (season_id, scope, target_id) WHERE status IN ('pending', 'preview_ready')",
			// Exactly one active parameter version.
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_rating_parameters_active ON league_rating_parameters (is_active) WHERE is_active",
		}
		for _, stmt := range indexes {
			if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("League standings tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping league standings and rating tables...")

		models := []any{
			(*standingsdb.SeasonComputation)(nil),
			(*standingsdb.SeasonLock)(nil),
			(*standingsdb.RatingParameters)(nil),
			(*standingsdb.RatingRecalculation)(nil),
			(*standingsdb.RatingAdjustment)(nil),
			(*standingsdb.RatingHistory)(nil),
			(*standingsdb.PlayerRating)(nil),
			(*standingsdb.DivisionStanding)(nil),
			(*standingsdb.MatchResult)(nil),
			(*standingsdb.MatchOutcome)(nil),
		}
		for _, model := range models {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}

		fmt.Println("League standings tables dropped successfully!")
		return nil
	})
}
