package application

import (
	"sync"

	"github.com/ark-network/ark-dice/internal/telemetry"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const subscriberBufferSize = 64

type Subscription struct {
	Id     string
	Events <-chan FeedEvent
}

type listener struct {
	id string
	ch chan FeedEvent
}

// broadcaster fans out feed events to live subscribers and keeps the most recent ones so
// that new subscribers start from a snapshot. A subscriber that cannot keep up is dropped
// and its channel closed.
type broadcaster struct {
	lock      *sync.Mutex
	listeners []*listener

	history []FeedEvent
	head    int
	count   int
}

func newBroadcaster(bufferSize int) *broadcaster {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &broadcaster{
		lock:      &sync.Mutex{},
		listeners: make([]*listener, 0),
		history:   make([]FeedEvent, bufferSize),
	}
}

func (b *broadcaster) publish(event FeedEvent) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.history[(b.head+b.count)%len(b.history)] = event
	if b.count < len(b.history) {
		b.count++
	} else {
		b.head = (b.head + 1) % len(b.history)
	}

	kept := b.listeners[:0]
	for _, l := range b.listeners {
		select {
		case l.ch <- event:
			kept = append(kept, l)
		default:
			log.Warnf("dropping slow event subscriber %s", l.id)
			close(l.ch)
		}
	}
	for i := len(kept); i < len(b.listeners); i++ {
		b.listeners[i] = nil
	}
	b.listeners = kept
	telemetry.Settlement().SetSubscribers(len(b.listeners))
}

func (b *broadcaster) subscribe() *Subscription {
	b.lock.Lock()
	defer b.lock.Unlock()

	l := &listener{
		id: uuid.New().String(),
		ch: make(chan FeedEvent, len(b.history)+subscriberBufferSize),
	}
	for _, event := range b.snapshotLocked() {
		l.ch <- event
	}
	b.listeners = append(b.listeners, l)
	telemetry.Settlement().SetSubscribers(len(b.listeners))

	return &Subscription{Id: l.id, Events: l.ch}
}

func (b *broadcaster) unsubscribe(id string) {
	b.lock.Lock()
	defer b.lock.Unlock()

	for i, l := range b.listeners {
		if l.id == id {
			close(l.ch)
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			telemetry.Settlement().SetSubscribers(len(b.listeners))
			return
		}
	}
}

func (b *broadcaster) snapshot() []FeedEvent {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.snapshotLocked()
}

func (b *broadcaster) snapshotLocked() []FeedEvent {
	events := make([]FeedEvent, 0, b.count)
	for i := 0; i < b.count; i++ {
		events = append(events, b.history[(b.head+i)%len(b.history)])
	}
	return events
}

func (b *broadcaster) close() {
	b.lock.Lock()
	defer b.lock.Unlock()

	for _, l := range b.listeners {
		close(l.ch)
	}
	b.listeners = make([]*listener, 0)
}
