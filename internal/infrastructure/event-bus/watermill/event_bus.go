package watermillbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const outputBufferSize = 100

type eventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
}

// NewGoChannelEventBus returns an in-process bus backed by watermill's go channel pubsub.
func NewGoChannelEventBus() ports.EventBus {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: outputBufferSize,
	}, watermill.NewStdLoggerWithOut(log.StandardLogger().WriterLevel(log.DebugLevel), false, false))
	return NewEventBus(pubsub, pubsub)
}

func NewEventBus(publisher message.Publisher, subscriber message.Subscriber) ports.EventBus {
	return &eventBus{publisher, subscriber}
}

func (b *eventBus) Publish(ctx context.Context, events ...domain.Event) error {
	byTopic := make(map[string][]*message.Message)
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to encode %s event: %w", event.Topic(), err)
		}
		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.SetContext(ctx)
		byTopic[event.Topic()] = append(byTopic[event.Topic()], msg)
	}

	for topic, msgs := range byTopic {
		if err := b.publisher.Publish(topic, msgs...); err != nil {
			return err
		}
	}
	return nil
}

func (b *eventBus) Subscribe(ctx context.Context, topic string) (<-chan ports.EventMessage, error) {
	msgs, err := b.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}

	ch := make(chan ports.EventMessage)
	go func() {
		defer close(ch)
		for msg := range msgs {
			select {
			case ch <- ports.EventMessage{Topic: topic, Payload: msg.Payload}:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return ch, nil
}

func (b *eventBus) Close() {
	//nolint:errcheck
	b.publisher.Close()
	//nolint:errcheck
	b.subscriber.Close()
}
