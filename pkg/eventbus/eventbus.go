package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName is the JetStream stream that stores every fitleague event.
	StreamName = "FITLEAGUE"
	// SubjectRoot prefixes every topic published on the bus.
	SubjectRoot = "fitleague"

	// MetadataTopic lets a handler choose the destination topic per message
	// when the router publishes with an empty topic.
	MetadataTopic = "topic"
)

// EventBus is a watermill publisher and subscriber pair.
type EventBus interface {
	Publish(topic string, messages ...*message.Message) error
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	Close() error
}

type eventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	natsConn   *nc.Conn
	logger     *slog.Logger
}

// NewNATSEventBus connects to NATS, makes sure the fitleague stream exists and
// returns a JetStream backed bus.
func NewNATSEventBus(ctx context.Context, natsURL, durablePrefix string, logger *slog.Logger) (EventBus, error) {
	natsConn, err := nc.Connect(natsURL, nc.RetryOnFailedConnect(true), nc.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(natsConn)
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}
	if err := ensureStream(ctx, js, logger); err != nil {
		natsConn.Close()
		return nil, err
	}

	wmLogger := watermill.NewSlogLogger(logger)
	marshaler := &wmnats.NATSMarshaler{}
	jsConfig := wmnats.JetStreamConfig{
		AutoProvision: false,
		TrackMsgId:    true,
		DurablePrefix: durablePrefix,
		DurableCalculator: func(prefix, topic string) string {
			return prefix + "_" + strings.NewReplacer(".", "_", "*", "any", ">", "all").Replace(topic)
		},
	}

	publisher, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         natsURL,
		Marshaler:   marshaler,
		NatsOptions: []nc.Option{nc.RetryOnFailedConnect(true)},
		JetStream:   jsConfig,
	}, wmLogger)
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to create watermill publisher: %w", err)
	}

	subscriber, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:              natsURL,
		QueueGroupPrefix: durablePrefix,
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
		return nil, fmt.Errorf("failed to create watermill subscriber: %w", err)
	}

	return &eventBus{
		publisher:  publisher,
		subscriber: subscriber,
		natsConn:   natsConn,
		logger:     logger,
	}, nil
}

// NewInMemoryEventBus returns a bus backed by a watermill go channel. Used in
// tests and when no NATS URL is configured.
func NewInMemoryEventBus(logger *slog.Logger) EventBus {
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
		Persistent:          true,
	}, watermill.NewSlogLogger(logger))
	return &eventBus{publisher: ch, subscriber: ch, logger: logger}
}

func ensureStream(ctx context.Context, js jetstream.JetStream, logger *slog.Logger) error {
	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to check stream %s: %w", StreamName, err)
	}
	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectRoot + ".>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", StreamName, err)
	}
	logger.Info("Created JetStream stream", slog.String("stream", StreamName))
	return nil
}

// Publish sends messages to topic. With an empty topic every message is routed
// by its MetadataTopic value instead.
func (eb *eventBus) Publish(topic string, messages ...*message.Message) error {
	if topic != "" {
		return eb.publish(topic, messages...)
	}
	for _, msg := range messages {
		routed := msg.Metadata.Get(MetadataTopic)
		if routed == "" {
			return fmt.Errorf("message %s has no topic", msg.UUID)
		}
		if err := eb.publish(routed, msg); err != nil {
			return err
		}
	}
	return nil
}

func (eb *eventBus) publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if msg.UUID == "" {
			msg.UUID = watermill.NewUUID()
		}
	}
	if err := eb.publisher.Publish(topic, messages...); err != nil {
		eb.logger.Error("Failed to publish message",
			slog.String("topic", topic),
			slog.Any("error", err),
		)
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	eb.logger.Debug("Published messages", slog.String("topic", topic), slog.Int("count", len(messages)))
	return nil
}

func (eb *eventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	messages, err := eb.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	eb.logger.Info("Subscription started", slog.String("topic", topic))
	return messages, nil
}

// Close closes the watermill publisher and subscriber, then the NATS connection.
func (eb *eventBus) Close() error {
	var errs []error
	if err := eb.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if any(eb.subscriber) != any(eb.publisher) {
		if err := eb.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	if eb.natsConn != nil {
		eb.natsConn.Close()
	}
	return errors.Join(errs...)
}
