package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shabdsetu-client/internal/pkg/logger"
	pkgEvents "shabdsetu-client/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const TopicView = "view.events"

const (
	metadataType       = "event_type"
	metadataOccurredAt = "occurred_at"
)

// Bus carries view events from controllers to renderers.
// Publishing blocks until the subscriber acks, so events render in order.
type Bus struct {
	pubSub *gochannel.GoChannel
	logger logger.ILogger
}

func NewBus(log logger.ILogger) *Bus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{BlockPublishUntilSubscriberAck: true},
		watermill.NopLogger{},
	)
	return &Bus{pubSub: pubSub, logger: log}
}

// Publish sends an event on the view topic.
func (b *Bus) Publish(ctx context.Context, event pkgEvents.Event) error {
	data, err := json.Marshal(event.Payload())
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(metadataType, event.EventType())
	msg.Metadata.Set(metadataOccurredAt, event.Timestamp().Format(time.RFC3339Nano))
	msg.SetContext(ctx)

	if err := b.pubSub.Publish(TopicView, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.EventType(), err)
	}
	return nil
}

// Consume hands every event to handle until ctx is cancelled or the bus is
// closed. The returned channel closes once the subscription is drained.
func (b *Bus) Consume(ctx context.Context, handle func(pkgEvents.Event)) (<-chan struct{}, error) {
	messages, err := b.pubSub.Subscribe(ctx, TopicView)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range messages {
			evt, err := decode(msg)
			if err != nil {
				b.logger.Warn("EVENTS", "Dropping undecodable view event", map[string]interface{}{"error": err.Error(), "uuid": msg.UUID})
				msg.Ack()
				continue
			}
			handle(evt)
			msg.Ack()
		}
	}()

	return done, nil
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}

func decode(msg *message.Message) (pkgEvents.Event, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &data); err != nil {
		return nil, err
	}

	occurredAt, err := time.Parse(time.RFC3339Nano, msg.Metadata.Get(metadataOccurredAt))
	if err != nil {
		occurredAt = time.Now()
	}

	return pkgEvents.BaseEvent{
		Type:       msg.Metadata.Get(metadataType),
		Data:       data,
		OccurredAt: occurredAt,
	}, nil
}
