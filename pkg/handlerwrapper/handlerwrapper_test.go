package handlerwrapper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Black-And-White-Club/rally-league/app/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type ping struct {
	Name string `json:"name"`
}

type pong struct {
	Greeting string `json:"greeting"`
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestWrapTransformingTyped(t *testing.T) {
	var seenCorrelation string
	h := WrapTransformingTyped("test.ping", discardLogger(), noop.NewTracerProvider().Tracer("t"), nil,
		func(ctx context.Context, p *ping) ([]Result, error) {
			seenCorrelation = attr.CorrelationID(ctx)
			return []Result{{Topic: "test.pong", Payload: pong{Greeting: "hi " + p.Name}, Metadata: map[string]string{"season_id": "s1"}}}, nil
		})

	in := message.NewMessage(watermill.NewUUID(), []byte(`{"name":"ann"}`))
	middleware.SetCorrelationID("corr-9", in)

	out, err := h(in)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "corr-9", seenCorrelation)
	assert.Equal(t, "test.pong", out[0].Metadata.Get(TopicMetadataKey))
	assert.Equal(t, "s1", out[0].Metadata.Get("season_id"))
	assert.Equal(t, "corr-9", middleware.MessageCorrelationID(out[0]))
	assert.JSONEq(t, `{"greeting":"hi ann"}`, string(out[0].Payload))
}

func TestWrapTransformingTyped_BadPayloadIsAcked(t *testing.T) {
	called := false
	h := WrapTransformingTyped("test.ping", discardLogger(), noop.NewTracerProvider().Tracer("t"), nil,
		func(ctx context.Context, p *ping) ([]Result, error) {
			called = true
			return nil, nil
		})

	out, err := h(message.NewMessage(watermill.NewUUID(), []byte("not json")))
	assert.NoError(t, err)
	assert.Nil(t, out)
	assert.False(t, called)
}

func TestWrapTransformingTyped_HandlerErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	h := WrapTransformingTyped("test.ping", discardLogger(), noop.NewTracerProvider().Tracer("t"), nil,
		func(ctx context.Context, p *ping) ([]Result, error) { return nil, boom })

	_, err := h(message.NewMessage(watermill.NewUUID(), []byte(`{}`)))
	assert.ErrorIs(t, err, boom)
}

func TestWrapTransformingTyped_ResultWithoutTopic(t *testing.T) {
	h := WrapTransformingTyped("test.ping", discardLogger(), noop.NewTracerProvider().Tracer("t"), nil,
		func(ctx context.Context, p *ping) ([]Result, error) { return []Result{{Payload: pong{}}}, nil })

	_, err := h(message.NewMessage(watermill.NewUUID(), []byte(`{}`)))
	assert.Error(t, err)
}
