package inmemorylivestore

import (
	"context"
	"sync"

	"github.com/ark-network/ark-dice/internal/core/ports"
)

func NewLiveStore() ports.LiveStore {
	return &inMemoryLiveStore{
		payoutBackoffs: NewPayoutBackoffStore(),
	}
}

func (s *inMemoryLiveStore) PayoutBackoffs() ports.PayoutBackoffStore { return s.payoutBackoffs }
func (s *inMemoryLiveStore) Close()                                    {}

type inMemoryLiveStore struct {
	payoutBackoffs ports.PayoutBackoffStore
}

type payoutBackoffStore struct {
	lock     sync.RWMutex
	backoffs map[string]ports.PayoutBackoff
}

func NewPayoutBackoffStore() ports.PayoutBackoffStore {
	return &payoutBackoffStore{
		backoffs: make(map[string]ports.PayoutBackoff),
	}
}

func (s *payoutBackoffStore) Get(_ context.Context, id string) (*ports.PayoutBackoff, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	backoff, ok := s.backoffs[id]
	if !ok {
		return nil, nil
	}
	return &backoff, nil
}

func (s *payoutBackoffStore) Set(_ context.Context, id string, backoff ports.PayoutBackoff) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.backoffs[id] = backoff
	return nil
}

func (s *payoutBackoffStore) Delete(_ context.Context, id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.backoffs, id)
	return nil
}
