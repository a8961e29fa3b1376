// Package eventbus provides the watermill publisher/subscriber pair the
// process runs on: NATS JetStream in production, an in-process channel in
// tests and single-binary setups.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Black-And-White-Club/rally-league/app/observability/attr"
	"github.com/Black-And-White-Club/rally-league/pkg/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventBus is a watermill Publisher and Subscriber that can also provision
// JetStream streams.
type EventBus interface {
	message.Publisher
	message.Subscriber
	// CreateStream makes sure a stream exists that captures subjects.
	CreateStream(ctx context.Context, streamName string, subjects ...string) error
}

type eventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	js         jetstream.JetStream
	natsConn   *nc.Conn
	logger     *slog.Logger

	createdStreams map[string]bool
	streamMutex    sync.Mutex
}

// NewNATSEventBus connects to NATS and builds JetStream backed
// publisher/subscriber. queueGroup names the durable consumers, so replicas of
// the service share work.
func NewNATSEventBus(ctx context.Context, natsURL, queueGroup string, logger *slog.Logger) (EventBus, error) {
	natsConn, err := nc.Connect(natsURL, nc.RetryOnFailedConnect(true), nc.MaxReconnects(-1))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to connect to NATS", attr.Error(err))
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(natsConn)
	if err != nil {
		natsConn.Close()
		logger.ErrorContext(ctx, "Failed to initialize JetStream", attr.Error(err))
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	wmLogger := watermill.NewSlogLogger(logger)
	marshaler := &nats.NATSMarshaler{}
	jsConfig := nats.JetStreamConfig{
		AutoProvision: false,
		DurablePrefix: queueGroup,
		DurableCalculator: func(prefix, topic string) string {
			return durableName(prefix, topic)
		},
	}

	publisher, err := nats.NewPublisher(nats.PublisherConfig{
		URL:         natsURL,
		Marshaler:   marshaler,
		NatsOptions: []nc.Option{nc.RetryOnFailedConnect(true)},
		JetStream:   jsConfig,
	}, wmLogger)
	if err != nil {
		natsConn.Close()
		logger.ErrorContext(ctx, "Failed to create Watermill publisher", attr.Error(err))
		return nil, fmt.Errorf("failed to create Watermill publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(nats.SubscriberConfig{
		URL:              natsURL,
		QueueGroupPrefix: queueGroup,
		SubscribersCount: 4,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     10 * time.Second,
		Unmarshaler:      marshaler,
		NatsOptions:      []nc.Option{nc.RetryOnFailedConnect(true)},
		JetStream:        jsConfig,
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		natsConn.Close()
		logger.ErrorContext(ctx, "Failed to create Watermill subscriber", attr.Error(err))
		return nil, fmt.Errorf("failed to create Watermill subscriber: %w", err)
	}

	return &eventBus{
		publisher:      publisher,
		subscriber:     subscriber,
		js:             js,
		natsConn:       natsConn,
		logger:         logger,
		createdStreams: make(map[string]bool),
	}, nil
}

// NewInMemoryEventBus builds an in-process bus on a watermill GoChannel.
func NewInMemoryEventBus(logger *slog.Logger) EventBus {
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, watermill.NewSlogLogger(logger))
	return &eventBus{
		publisher:      ch,
		subscriber:     ch,
		logger:         logger,
		createdStreams: make(map[string]bool),
	}
}

// durableName derives a JetStream consumer name; dots are not allowed there.
func durableName(prefix, topic string) string {
	name := strings.NewReplacer(".", "_", "*", "all", ">", "rest").Replace(topic)
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

// Publish sends msgs to topic. An empty topic routes every message by its
// "topic" metadata, which is how router handlers address their output.
func (eb *eventBus) Publish(topic string, msgs ...*message.Message) error {
	if topic != "" {
		return eb.publisher.Publish(topic, msgs...)
	}
	for _, msg := range msgs {
		target := msg.Metadata.Get(handlerwrapper.TopicMetadataKey)
		if target == "" {
			return fmt.Errorf("message %s has no topic metadata", msg.UUID)
		}
		eb.logger.Debug("Publishing message",
			attr.String("topic", target),
			attr.String("message_uuid", msg.UUID),
		)
		if err := eb.publisher.Publish(target, msg); err != nil {
			return fmt.Errorf("publish to %s: %w", target, err)
		}
	}
	return nil
}

func (eb *eventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	eb.logger.InfoContext(ctx, "Subscribing to topic", attr.String("topic", topic))
	return eb.subscriber.Subscribe(ctx, topic)
}

func (eb *eventBus) CreateStream(ctx context.Context, streamName string, subjects ...string) error {
	if eb.js == nil {
		return nil
	}

	eb.streamMutex.Lock()
	defer eb.streamMutex.Unlock()

	if eb.createdStreams[streamName] {
		return nil
	}

	stream, err := eb.js.Stream(ctx, streamName)
	switch {
	case errors.Is(err, jetstream.ErrStreamNotFound):
		_, err = eb.js.CreateStream(ctx, jetstream.StreamConfig{
			Name:      streamName,
			Subjects:  subjects,
			Retention: jetstream.LimitsPolicy,
			MaxAge:    7 * 24 * time.Hour,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", streamName, err)
		}
		eb.logger.InfoContext(ctx, "Stream created", attr.String("stream_name", streamName), attr.Any("subjects", subjects))
	case err != nil:
		return fmt.Errorf("failed to check if stream exists: %w", err)
	default:
		info, err := stream.Info(ctx)
		if err != nil {
			return fmt.Errorf("failed to get stream info: %w", err)
		}
		missing := false
		for _, s := range subjects {
			if !containsSubject(info.Config.Subjects, s) {
				info.Config.Subjects = append(info.Config.Subjects, s)
				missing = true
			}
		}
		if missing {
			if _, err := eb.js.UpdateStream(ctx, info.Config); err != nil {
				return fmt.Errorf("failed to update stream with new subjects: %w", err)
			}
			eb.logger.InfoContext(ctx, "Stream updated with new subjects", attr.String("stream_name", streamName))
		}
	}

	eb.createdStreams[streamName] = true
	return nil
}

func containsSubject(subjects []string, s string) bool {
	for _, existing := range subjects {
		if existing == s {
			return true
		}
	}
	return false
}

// Close closes all NATS and Watermill resources.
func (eb *eventBus) Close() error {
	var errs []error
	if eb.publisher != nil {
		if err := eb.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	// The in-memory bus uses one GoChannel for both sides.
	if eb.subscriber != nil && any(eb.subscriber) != any(eb.publisher) {
		if err := eb.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	if eb.natsConn != nil {
		eb.natsConn.Close()
	}
	return errors.Join(errs...)
}
