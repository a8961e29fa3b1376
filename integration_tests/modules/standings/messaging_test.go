package standings_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Black-And-White-Club/rally-league/app/eventbus"
	"github.com/Black-And-White-Club/rally-league/app/modules/standings"
	standingsevents "github.com/Black-And-White-Club/rally-league/app/modules/standings/events"
	"github.com/Black-And-White-Club/rally-league/config"
	"github.com/Black-And-White-Club/rally-league/integration_tests/testutils"
	"github.com/Black-And-White-Club/rally-league/pkg/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startNATSModule runs the standings module and its router on JetStream.
func startNATSModule(t *testing.T) (eventbus.EventBus, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)

	bus, err := eventbus.NewNATSEventBus(ctx, env.NATSURL, "league-it", env.Logger)
	require.NoError(t, err)
	require.NoError(t, eventbus.InitializeStreams(ctx, bus))

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 5 * time.Second}, watermill.NewSlogLogger(env.Logger))
	require.NoError(t, err)

	module, err := standings.NewStandingsModule(ctx, testConfig(config.QueueInline), testObservability(), env.DB, bus, router)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go module.Run(ctx, &wg)
	go func() { _ = router.Run(ctx) }()
	<-router.Running()

	t.Cleanup(func() {
		_ = router.Close()
		assert.NoError(t, module.Close(context.Background()))
		cancel()
		wg.Wait()
		_ = bus.Close()
	})
	return bus, ctx
}

func awaitMessage[T any](t *testing.T, ctx context.Context, ch <-chan *message.Message) T {
	t.Helper()
	var out T
	select {
	case msg := <-ch:
		msg.Ack()
		require.NoError(t, json.Unmarshal(msg.Payload, &out))
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
	return out
}

func TestMessaging_MatchFinalizedPublishesStandings(t *testing.T) {
	freshDatabase(t)
	bus, ctx := startNATSModule(t)

	updated, err := bus.Subscribe(ctx, standingsevents.StandingsUpdatedV1+"."+testSeason)
	require.NoError(t, err)

	match := singles("it-msg-1", testDivision, 1, "ana", "ben")
	msg, err := handlerwrapper.NewMessage(ctx, standingsevents.MatchFinalizedV1, match)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(standingsevents.MatchFinalizedV1, msg))

	payload := awaitMessage[standingsevents.StandingsUpdatedPayload](t, ctx, updated)
	assert.Equal(t, testSeason, payload.SeasonID)
	assert.Equal(t, testDivision, payload.DivisionID)
	require.Len(t, payload.Standings, 2)
	assert.Equal(t, "ana", payload.Standings[0].EntityID)
}

func TestMessaging_LockSeasonCommand(t *testing.T) {
	freshDatabase(t)
	bus, ctx := startNATSModule(t)

	changed, err := bus.Subscribe(ctx, standingsevents.SeasonLockChangedV1+"."+testSeason)
	require.NoError(t, err)

	cmd := standingsevents.AdminCommandPayload{
		CommandID: "it-lock-1",
		Type:      standingsevents.CommandLockSeason,
		Actor:     testutils.AdminID,
		SeasonID:  testSeason,
		Lock:      &standingsevents.LockArgs{},
	}
	msg, err := handlerwrapper.NewMessage(ctx, standingsevents.AdminCommandV1, cmd)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(standingsevents.AdminCommandV1, msg))

	payload := awaitMessage[standingsevents.SeasonLockChangedPayload](t, ctx, changed)
	assert.Equal(t, "it-lock-1", payload.CommandID)
	assert.True(t, payload.IsLocked)
	assert.Equal(t, testutils.AdminID, payload.LockedBy)
}
