package livestore_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ark-network/ark-dice/internal/core/ports"
	inmemory "github.com/ark-network/ark-dice/internal/infrastructure/live-store/inmemory"
	redislivestore "github.com/ark-network/ark-dice/internal/infrastructure/live-store/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestLiveStoreImplementations(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	stores := []struct {
		name  string
		store ports.LiveStore
	}{
		{"inmemory", inmemory.NewLiveStore()},
		{"redis", redislivestore.NewLiveStore(rdb)},
	}

	for _, tt := range stores {
		t.Run(tt.name, func(t *testing.T) {
			runLiveStoreTests(t, tt.store)
		})
	}
}

func runLiveStoreTests(t *testing.T, store ports.LiveStore) {
	t.Run("payout_backoffs", func(t *testing.T) {
		ctx := context.Background()
		backoffs := store.PayoutBackoffs()

		got, err := backoffs.Get(ctx, "game-1")
		require.NoError(t, err)
		require.Nil(t, got)

		backoff := ports.PayoutBackoff{Attempts: 2, NextAttemptAt: 1700000000}
		require.NoError(t, backoffs.Set(ctx, "game-1", backoff))

		got, err = backoffs.Get(ctx, "game-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, backoff, *got)

		backoff.Attempts = 3
		backoff.Escalated = true
		require.NoError(t, backoffs.Set(ctx, "game-1", backoff))

		got, err = backoffs.Get(ctx, "game-1")
		require.NoError(t, err)
		require.True(t, got.Escalated)
		require.Equal(t, 3, got.Attempts)

		other, err := backoffs.Get(ctx, "game-2")
		require.NoError(t, err)
		require.Nil(t, other)

		require.NoError(t, backoffs.Delete(ctx, "game-1"))
		got, err = backoffs.Get(ctx, "game-1")
		require.NoError(t, err)
		require.Nil(t, got)

		require.NoError(t, backoffs.Delete(ctx, "missing"))
	})
}
