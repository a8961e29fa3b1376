package eventbus

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Black-And-White-Club/rally-league/pkg/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventBus_RoutesByTopicMetadata(t *testing.T) {
	bus := NewInMemoryEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := bus.Subscribe(ctx, "league.test.v1")
	require.NoError(t, err)

	msg := message.NewMessage(watermill.NewUUID(), []byte(`{}`))
	msg.Metadata.Set(handlerwrapper.TopicMetadataKey, "league.test.v1")
	require.NoError(t, bus.Publish("", msg))

	select {
	case got := <-messages:
		assert.Equal(t, msg.UUID, got.UUID)
		got.Ack()
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestInMemoryEventBus_RejectsMissingTopic(t *testing.T) {
	bus := NewInMemoryEventBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = bus.Close() })

	err := bus.Publish("", message.NewMessage(watermill.NewUUID(), nil))
	assert.Error(t, err)
	assert.NoError(t, bus.CreateStream(context.Background(), LeagueStream, "league.>"))
}

func TestFormatSeasonScopedTopic(t *testing.T) {
	topic, err := FormatSeasonScopedTopic("league.standings.updated.v1", "2026-spring")
	require.NoError(t, err)
	assert.Equal(t, "league.standings.updated.v1.2026-spring", topic)

	_, err = FormatSeasonScopedTopic("league.standings.updated.v1", "")
	assert.Error(t, err)
	_, err = FormatSeasonScopedTopic("league.standings.updated.v1", "2026.spring")
	assert.Error(t, err)
}

func TestDurableName(t *testing.T) {
	assert.Equal(t, "league_league_match_finalized_v1", durableName("league", "league.match.finalized.v1"))
	assert.Equal(t, "a_b", durableName("", "a.b"))
}
