package testutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/rally-league/app"
	"github.com/Black-And-White-Club/rally-league/config"
	"github.com/Black-And-White-Club/rally-league/integration_tests/containers"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
)

// TestEnvironment holds all resources needed for integration testing
type TestEnvironment struct {
	PgContainer   *postgres.PostgresContainer
	NatsContainer *tcnats.NATSContainer
	DB            *bun.DB
	DSN           string
	NATSURL       string
	Logger        *slog.Logger
}

// NewTestEnvironment starts Postgres and NATS and migrates the schema.
func NewTestEnvironment(ctx context.Context) (*TestEnvironment, error) {
	env := &TestEnvironment{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		return nil, err
	}
	env.PgContainer, env.DSN = pgContainer, dsn

	natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
	if err != nil {
		env.Terminate()
		return nil, err
	}
	env.NatsContainer, env.NATSURL = natsContainer, natsURL

	env.DB, err = app.OpenDB(ctx, dsn)
	if err != nil {
		env.Terminate()
		return nil, err
	}

	if _, err := app.MigrateAll(ctx, env.DB, dsn); err != nil {
		env.Terminate()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return env, nil
}

// Config returns a configuration pointing at the containers. Recalculations
// run on River unless queue says otherwise.
func (env *TestEnvironment) Config(queue string) *config.Config {
	return &config.Config{
		Postgres:      config.PostgresConfig{DSN: env.DSN},
		NATS:          config.NATSConfig{URL: env.NATSURL, QueueGroup: "league-it"},
		Observability: config.ObservabilityConfig{Environment: "test"},
		Recalculation: config.RecalculationConfig{
			Queue:          queue,
			ApplyTimeout:   30 * time.Second,
			PreviewTimeout: 30 * time.Second,
			MaxWorkers:     2,
		},
		Admin: config.AdminConfig{Admins: []string{AdminID}},
	}
}

// AdminID is the only admin integration tests configure.
const AdminID = "admin-it"

// derivedTables hold everything the engine computes or records.
var derivedTables = []string{
	"league_match_outcomes",
	"league_match_results",
	"league_division_standings",
	"league_player_ratings",
	"league_rating_history",
	"league_rating_adjustments",
	"league_rating_recalculations",
	"league_season_locks",
	"league_season_computations",
}

// CleanupDatabase empties derived tables and River jobs, and restores the
// seeded parameter version as the only active one.
func (env *TestEnvironment) CleanupDatabase(ctx context.Context) error {
	return env.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE ? CASCADE", bun.In(tableIdents(derivedTables))); err != nil {
			return fmt.Errorf("failed to truncate tables: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM river_job"); err != nil {
			return fmt.Errorf("failed to cleanup river jobs: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM league_rating_parameters WHERE version > 1"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "UPDATE league_rating_parameters SET is_active = TRUE WHERE version = 1")
		return err
	})
}

func tableIdents(names []string) []bun.Ident {
	out := make([]bun.Ident, len(names))
	for i, n := range names {
		out[i] = bun.Ident(n)
	}
	return out
}

// Terminate releases every resource the environment holds.
func (env *TestEnvironment) Terminate() {
	if env.DB != nil {
		_ = env.DB.Close()
	}
	if env.NatsContainer != nil {
		_ = testcontainers.TerminateContainer(env.NatsContainer)
	}
	if env.PgContainer != nil {
		_ = testcontainers.TerminateContainer(env.PgContainer)
	}
}
