package standingsmigrations

import (
	"context"
	"fmt"
	"time"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	standingsdb "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// Seeds version 1 of the rating parameters when none exist, so a fresh
// database can record matches without a manual publish.
func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		exists, err := db.NewSelect().Model((*standingsdb.RatingParameters)(nil)).Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			fmt.Println("Rating parameters already present, skipping seed")
			return nil
		}

		defaults := standingsdomain.DefaultRatingParameters()
		defaults.EffectiveFrom = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		row := standingsdb.ParametersFromDomain(defaults)
		row.IsActive = true
		row.PublishedBy = "migration"
		if _, err := db.NewInsert().Model(row).Exec(ctx); err != nil {
			return err
		}
		fmt.Println("Seeded rating parameters version", row.Version)
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDelete().
			Model((*standingsdb.RatingParameters)(nil)).
			Where("version = ?", 1).
			Where("published_by = ?", "migration").
			Exec(ctx)
		return err
	})
}
