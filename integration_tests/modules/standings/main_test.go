package standings_test

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/Black-And-White-Club/rally-league/app/modules/standings"
	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	"github.com/Black-And-White-Club/rally-league/app/observability"
	"github.com/Black-And-White-Club/rally-league/config"
	"github.com/Black-And-White-Club/rally-league/integration_tests/testutils"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	testSeason   = "2026-it"
	testDivision = "div-it"
)

var (
	env      *testutils.TestEnvironment
	baseDate = time.Date(2026, time.April, 1, 18, 0, 0, 0, time.UTC)
)

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Println("Skipping standings integration tests in short mode")
		os.Exit(0)
	}

	var err error
	env, err = testutils.NewTestEnvironment(context.Background())
	if err != nil {
		log.Fatalf("Failed to set up test environment: %v", err)
	}

	code := m.Run()
	env.Terminate()
	os.Exit(code)
}

func testObservability() standings.Observability {
	return standings.Observability{
		Logger:  env.Logger,
		Metrics: observability.NoOpMetrics{},
		Tracer:  noop.NewTracerProvider().Tracer("integration"),
	}
}

// freshDatabase empties the database before a test.
func freshDatabase(t *testing.T) {
	t.Helper()
	require.NoError(t, env.CleanupDatabase(context.Background()))
}

func testConfig(queue string) *config.Config {
	return env.Config(queue)
}

// singles builds a completed two-set singles match won by winner.
func singles(id, division string, day int, winner, loser string) standingsdomain.FinalizedMatch {
	played := baseDate.AddDate(0, 0, day)
	return standingsdomain.FinalizedMatch{
		MatchID:    id,
		DivisionID: division,
		SeasonID:   testSeason,
		SportType:  standingsdomain.SportPadel,
		GameType:   standingsdomain.GameSingles,
		Status:     standingsdomain.MatchCompleted,
		Participants: []standingsdomain.Participant{
			{EntityID: winner, Team: standingsdomain.TeamOne, IsWinner: true},
			{EntityID: loser, Team: standingsdomain.TeamTwo},
		},
		TeamOne:    standingsdomain.SideScore{SetsWon: 2, GamesWon: 12, GamesLost: 6},
		TeamTwo:    standingsdomain.SideScore{SetsLost: 2, GamesWon: 6, GamesLost: 12},
		DatePlayed: played,
		CreatedAt:  played.Add(-time.Hour),
	}
}
