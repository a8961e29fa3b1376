// Package handlerwrapper adapts typed handlers to watermill handler funcs.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/rally-league/app/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TopicMetadataKey carries the destination topic of produced messages; the
// publisher routes on it.
const TopicMetadataKey = "topic"

// Result is one message a handler wants published.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// ReturningMetrics is the subset of metrics the wrapper reports to.
type ReturningMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, subject string)
	RecordOperationSuccess(ctx context.Context, operation, subject string)
	RecordOperationFailure(ctx context.Context, operation, subject string)
	RecordOperationDuration(ctx context.Context, operation, subject string, duration time.Duration)
}

// WrapTransformingTyped decodes the message payload into T, runs handler and
// turns its results into outgoing messages. Payloads that do not decode are
// logged and acked; redelivering them could never succeed.
func WrapTransformingTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	metrics ReturningMetrics,
	handler func(context.Context, *T) ([]Result, error),
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		correlationID := middleware.MessageCorrelationID(msg)
		ctx := attr.WithCorrelationID(msg.Context(), correlationID)

		ctx, span := tracer.Start(ctx, handlerName, trace.WithAttributes(
			attribute.String("handler", handlerName),
			attribute.String("message_uuid", msg.UUID),
		))
		defer span.End()

		start := time.Now()
		if metrics != nil {
			metrics.RecordOperationAttempt(ctx, handlerName, "router")
			defer func() {
				metrics.RecordOperationDuration(ctx, handlerName, "router", time.Since(start))
			}()
		}

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.ErrorContext(ctx, "Failed to decode message payload",
				attr.String("handler", handlerName),
				attr.String("message_uuid", msg.UUID),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode failed")
			if metrics != nil {
				metrics.RecordOperationFailure(ctx, handlerName, "router")
			}
			return nil, nil
		}

		results, err := handler(ctx, payload)
		if err != nil {
			logger.ErrorContext(ctx, "Handler failed",
				attr.String("handler", handlerName),
				attr.ExtractCorrelationID(ctx),
				attr.Error(err),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if metrics != nil {
				metrics.RecordOperationFailure(ctx, handlerName, "router")
			}
			return nil, err
		}

		out := make([]*message.Message, 0, len(results))
		for _, r := range results {
			m, err := newMessage(r, correlationID)
			if err != nil {
				span.RecordError(err)
				return nil, fmt.Errorf("%s: %w", handlerName, err)
			}
			out = append(out, m)
		}

		if metrics != nil {
			metrics.RecordOperationSuccess(ctx, handlerName, "router")
		}
		return out, nil
	}
}

func newMessage(r Result, correlationID string) (*message.Message, error) {
	if r.Topic == "" {
		return nil, fmt.Errorf("result has no topic")
	}
	data, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", r.Topic, err)
	}
	m := message.NewMessage(watermill.NewUUID(), data)
	for k, v := range r.Metadata {
		m.Metadata.Set(k, v)
	}
	m.Metadata.Set(TopicMetadataKey, r.Topic)
	if correlationID != "" {
		middleware.SetCorrelationID(correlationID, m)
	}
	return m, nil
}

// NewMessage builds an outgoing message the same way handler results are
// built. Used by publishers outside the router.
func NewMessage(ctx context.Context, topic string, payload any) (*message.Message, error) {
	return newMessage(Result{Topic: topic, Payload: payload}, attr.CorrelationID(ctx))
}
