package redislivestore

import (
	"context"
	"time"

	"github.com/ark-network/ark-dice/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

const (
	payoutBackoffPrefix = "payout:backoff:"
	// Entries of payouts nobody retries anymore fade away eventually.
	payoutBackoffTTL = 7 * 24 * time.Hour
)

func NewLiveStore(rdb *redis.Client) ports.LiveStore {
	return &redisLiveStore{
		rdb:            rdb,
		payoutBackoffs: NewPayoutBackoffStore(rdb),
	}
}

func (s *redisLiveStore) PayoutBackoffs() ports.PayoutBackoffStore { return s.payoutBackoffs }
func (s *redisLiveStore) Close()                                    { _ = s.rdb.Close() }

type redisLiveStore struct {
	rdb            *redis.Client
	payoutBackoffs ports.PayoutBackoffStore
}

type payoutBackoffStore struct {
	kv *KVStore[ports.PayoutBackoff]
}

func NewPayoutBackoffStore(rdb *redis.Client) ports.PayoutBackoffStore {
	return &payoutBackoffStore{
		kv: NewRedisKVStore[ports.PayoutBackoff](rdb, payoutBackoffPrefix, payoutBackoffTTL),
	}
}

func (s *payoutBackoffStore) Get(ctx context.Context, id string) (*ports.PayoutBackoff, error) {
	return s.kv.Get(ctx, id)
}

func (s *payoutBackoffStore) Set(ctx context.Context, id string, backoff ports.PayoutBackoff) error {
	return s.kv.Set(ctx, id, &backoff)
}

func (s *payoutBackoffStore) Delete(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, id)
}
