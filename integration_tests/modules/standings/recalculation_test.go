package standings_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Black-And-White-Club/rally-league/app/eventbus"
	"github.com/Black-And-White-Club/rally-league/app/modules/standings"
	standingsservice "github.com/Black-And-White-Club/rally-league/app/modules/standings/application"
	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	standingsdb "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories"
	"github.com/Black-And-White-Club/rally-league/config"
	"github.com/Black-And-White-Club/rally-league/integration_tests/testutils"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startRiverModule runs the standings module with River-backed recalculation
// on an in-memory bus.
func startRiverModule(t *testing.T) *standings.Module {
	t.Helper()
	ctx := context.Background()

	bus := eventbus.NewInMemoryEventBus(env.Logger)
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(env.Logger))
	require.NoError(t, err)

	module, err := standings.NewStandingsModule(ctx, testConfig(config.QueueRiver), testObservability(), env.DB, bus, router)
	require.NoError(t, err)
	require.NotNil(t, module.Queue)

	var wg sync.WaitGroup
	wg.Add(1)
	go module.Run(ctx, &wg)

	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		assert.NoError(t, module.Close(stopCtx))
		wg.Wait()
		_ = bus.Close()
	})
	return module
}

func waitForStatus(t *testing.T, svc standingsservice.Service, id uuid.UUID, want standingsdb.RecalculationStatus) standingsservice.RecalculationJob {
	t.Helper()
	var job standingsservice.RecalculationJob
	require.Eventually(t, func() bool {
		res, err := svc.GetRecalculation(context.Background(), id)
		if err != nil || !res.IsSuccess() {
			return false
		}
		job = *res.Success
		return job.Status == want || job.Status == standingsdb.RecalcFailed
	}, 20*time.Second, 100*time.Millisecond)
	require.Equal(t, want, job.Status, job.ErrorMessage)
	return job
}

func TestRecalculation_PreviewAndApplyOnRiver(t *testing.T) {
	freshDatabase(t)
	ctx := context.Background()
	module := startRiverModule(t)
	svc := module.Service

	for i, pair := range [][2]string{{"ana", "ben"}, {"ben", "cal"}, {"cal", "ana"}} {
		res, err := svc.RecordMatch(ctx, singles(uuid.NewString(), testDivision, i+1, pair[0], pair[1]))
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
	}

	// A correction moves ana's rating; replay keeps the adjustment, so the
	// season recomputes to the same state.
	adj, err := svc.GrantAdjustment(ctx, standingsservice.AdjustmentRequest{
		SeasonID: testSeason, PlayerID: "ana", AdminID: testutils.AdminID,
		Type: standingsdb.AdjustmentCorrection, NewRating: 1600, Reason: "data entry fix",
	})
	require.NoError(t, err)
	require.True(t, adj.IsSuccess())

	submitted, err := svc.SubmitRecalculation(ctx, standingsservice.RecalculationRequest{
		SeasonID: testSeason, Scope: standingsdomain.ScopeSeason, RequestedBy: testutils.AdminID,
	})
	require.NoError(t, err)
	require.True(t, submitted.IsSuccess())
	jobID := (*submitted.Success).ID

	t.Run("duplicate submission conflicts", func(t *testing.T) {
		again, err := svc.SubmitRecalculation(ctx, standingsservice.RecalculationRequest{
			SeasonID: testSeason, Scope: standingsdomain.ScopeSeason, RequestedBy: testutils.AdminID,
		})
		require.NoError(t, err)
		require.True(t, again.IsFailure())
		assert.ErrorIs(t, *again.Failure, standingsdomain.ErrConflict)
	})

	require.NoError(t, module.Queue.SchedulePreview(ctx, jobID))
	preview := waitForStatus(t, svc, jobID, standingsdb.RecalcPreviewReady)
	assert.False(t, preview.PreviewGeneratedAt.IsZero())

	before, err := svc.GetPlayerRating(ctx, testSeason, "ana")
	require.NoError(t, err)
	require.True(t, before.IsSuccess())

	require.NoError(t, module.Queue.ScheduleApply(ctx, jobID, testutils.AdminID))
	applied := waitForStatus(t, svc, jobID, standingsdb.RecalcApplied)
	assert.Equal(t, testutils.AdminID, applied.AppliedBy)

	after, err := svc.GetPlayerRating(ctx, testSeason, "ana")
	require.NoError(t, err)
	require.True(t, after.IsSuccess())
	assert.Equal(t, (*before.Success).Rating, (*after.Success).Rating)

	status, err := svc.GetSeasonStatus(ctx, testSeason)
	require.NoError(t, err)
	require.True(t, status.IsSuccess())
	assert.Equal(t, standingsdb.SourceRecalculation, (*status.Success).Source)
}

func TestRecalculation_ApplyAfterNewResultsDiverges(t *testing.T) {
	freshDatabase(t)
	ctx := context.Background()
	module := startRiverModule(t)
	svc := module.Service

	res, err := svc.RecordMatch(ctx, singles("it-r1", testDivision, 1, "ana", "ben"))
	require.NoError(t, err)
	require.True(t, res.IsSuccess())

	submitted, err := svc.SubmitRecalculation(ctx, standingsservice.RecalculationRequest{
		SeasonID: testSeason, Scope: standingsdomain.ScopeDivision, TargetID: testDivision, RequestedBy: testutils.AdminID,
	})
	require.NoError(t, err)
	require.True(t, submitted.IsSuccess())
	jobID := (*submitted.Success).ID

	require.NoError(t, module.Queue.SchedulePreview(ctx, jobID))
	waitForStatus(t, svc, jobID, standingsdb.RecalcPreviewReady)

	res, err = svc.RecordMatch(ctx, singles("it-r2", testDivision, 2, "ben", "ana"))
	require.NoError(t, err)
	require.True(t, res.IsSuccess())

	require.NoError(t, module.Queue.ScheduleApply(ctx, jobID, testutils.AdminID))
	failed := waitForStatus(t, svc, jobID, standingsdb.RecalcFailed)
	assert.NotEmpty(t, failed.ErrorMessage)
}
