package application

import (
	"testing"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func donationEvent(id string) FeedEvent {
	return FeedEvent{
		Topic:    domain.TopicDonation,
		Donation: &domain.Donation{Id: id},
	}
}

func TestBroadcaster(t *testing.T) {
	t.Run("replay snapshot", func(t *testing.T) {
		b := newBroadcaster(3)
		for _, id := range []string{"a", "b", "c", "d", "e"} {
			b.publish(donationEvent(id))
		}

		sub := b.subscribe()
		for _, id := range []string{"c", "d", "e"} {
			event := <-sub.Events
			require.Equal(t, id, event.Donation.Id)
		}

		b.publish(donationEvent("f"))
		event := <-sub.Events
		require.Equal(t, "f", event.Donation.Id)
	})

	t.Run("publish order", func(t *testing.T) {
		b := newBroadcaster(10)
		first := b.subscribe()
		second := b.subscribe()

		ids := []string{"1", "2", "3", "4"}
		for _, id := range ids {
			b.publish(donationEvent(id))
		}
		for _, sub := range []*Subscription{first, second} {
			for _, id := range ids {
				event := <-sub.Events
				require.Equal(t, id, event.Donation.Id)
			}
		}
	})

	t.Run("unsubscribe", func(t *testing.T) {
		b := newBroadcaster(2)
		sub := b.subscribe()
		b.unsubscribe(sub.Id)

		_, ok := <-sub.Events
		require.False(t, ok)

		// Unknown ids are ignored.
		b.unsubscribe(sub.Id)
		b.publish(donationEvent("x"))
		require.Len(t, b.snapshot(), 1)
	})

	t.Run("slow subscriber dropped", func(t *testing.T) {
		b := newBroadcaster(1)
		slow := b.subscribe()
		fast := b.subscribe()

		for i := 0; i < subscriberBufferSize+2; i++ {
			b.publish(donationEvent("spam"))
			select {
			case <-fast.Events:
			default:
			}
		}

		received := 0
		for range slow.Events {
			received++
		}
		require.Equal(t, subscriberBufferSize+1, received)

		b.lock.Lock()
		require.Len(t, b.listeners, 1)
		require.Equal(t, fast.Id, b.listeners[0].id)
		b.lock.Unlock()
	})
}
