package app

import (
	"context"
	"fmt"

	standingsmigrations "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// NewMigrator returns the bun migrator for the league schema.
func NewMigrator(db *bun.DB) *migrate.Migrator {
	return migrate.NewMigrator(db, standingsmigrations.Migrations)
}

// MigrateRiver moves River's queue schema in direction. River talks pgx, so
// it gets its own short-lived pool.
func MigrateRiver(ctx context.Context, dsn string, direction rivermigrate.Direction, opts *rivermigrate.MigrateOpts) (*rivermigrate.MigrateResult, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool for River migrations: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create River migrator: %w", err)
	}

	res, err := migrator.Migrate(ctx, direction, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to run River migrations: %w", err)
	}
	return res, nil
}

// MigrateAll brings both the River schema and the league schema up to date.
func MigrateAll(ctx context.Context, db *bun.DB, dsn string) (*migrate.MigrationGroup, error) {
	if _, err := MigrateRiver(ctx, dsn, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return nil, err
	}

	migrator := NewMigrator(db)
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize migration tables: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run league migrations: %w", err)
	}
	return group, nil
}
