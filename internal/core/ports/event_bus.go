package ports

import (
	"context"

	"github.com/ark-network/ark-dice/internal/core/domain"
)

type EventMessage struct {
	Topic   string
	Payload []byte
}

// EventBus carries domain events to consumers outside of the settlement path.
type EventBus interface {
	Publish(ctx context.Context, events ...domain.Event) error
	Subscribe(ctx context.Context, topic string) (<-chan EventMessage, error)
	Close()
}
