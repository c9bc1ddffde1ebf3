package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/internal/core/ports"
	"github.com/ark-network/ark-dice/internal/infrastructure/db"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testMaxPayout = 100000

var testGameAddresses = map[domain.Multiplier]string{
	105:  "tark1qx105",
	200:  "tark1qx200",
	2500: "tark1qx2500",
}

type mockedWallet struct {
	mock.Mock
}

func (m *mockedWallet) GetGameAddresses(ctx context.Context) (map[domain.Multiplier]string, error) {
	args := m.Called(ctx)
	var res map[domain.Multiplier]string
	if a := args.Get(0); a != nil {
		res = a.(map[domain.Multiplier]string)
	}
	return res, args.Error(1)
}

func (m *mockedWallet) SubscribePayments(ctx context.Context) (<-chan domain.IncomingPayment, error) {
	args := m.Called(ctx)
	var res <-chan domain.IncomingPayment
	if a := args.Get(0); a != nil {
		res = a.(chan domain.IncomingPayment)
	}
	return res, args.Error(1)
}

func (m *mockedWallet) ListPayments(ctx context.Context) ([]domain.IncomingPayment, error) {
	args := m.Called(ctx)
	var res []domain.IncomingPayment
	if a := args.Get(0); a != nil {
		res = a.([]domain.IncomingPayment)
	}
	return res, args.Error(1)
}

func (m *mockedWallet) Send(
	ctx context.Context, address string, amount uint64, reference string,
) (string, error) {
	args := m.Called(ctx, address, amount, reference)
	return args.String(0), args.Error(1)
}

func (m *mockedWallet) Consolidate(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockedWallet) GetBalance(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockedWallet) Close() {
	m.Called()
}

type mockedNotifier struct {
	mock.Mock
}

func (m *mockedNotifier) Notify(ctx context.Context, to any, message string) error {
	args := m.Called(ctx, to, message)
	return args.Error(0)
}

type fakeClock struct {
	lock sync.Mutex
	now  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1735689600, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

// eventRecorder collects what the components under test propagate.
type eventRecorder struct {
	lock   sync.Mutex
	events []domain.Event
}

func (r *eventRecorder) propagate(_ context.Context, events ...domain.Event) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = append(r.events, events...)
}

func (r *eventRecorder) byTopic(topic string) []domain.Event {
	r.lock.Lock()
	defer r.lock.Unlock()
	events := make([]domain.Event, 0)
	for _, e := range r.events {
		if e.Topic() == topic {
			events = append(events, e)
		}
	}
	return events
}

func newTestLedger(t *testing.T) ports.RepoManager {
	t.Helper()
	repoManager, err := db.NewService(db.ServiceConfig{
		DataStoreType:   "badger",
		DataStoreConfig: []interface{}{"", nil},
	})
	require.NoError(t, err)
	t.Cleanup(repoManager.Close)
	return repoManager
}

func newTestRegistry(t *testing.T) *addressRegistry {
	t.Helper()
	wallet := &mockedWallet{}
	wallet.On("GetGameAddresses", mock.Anything).Return(testGameAddresses, nil)
	registry, err := newAddressRegistry(context.Background(), wallet, testMaxPayout)
	require.NoError(t, err)
	return registry
}

func newTestNonceManager(
	t *testing.T, repoManager ports.RepoManager, clock *fakeClock,
) *nonceManager {
	t.Helper()
	m := newNonceManager(repoManager.Nonces(), time.Hour, nil)
	m.now = clock.Now
	require.NoError(t, m.start(context.Background()))
	return m
}

func testPayment(txid, address string, amount uint64) domain.IncomingPayment {
	return domain.IncomingPayment{
		Address:    address,
		Txid:       txid,
		Amount:     amount,
		Sender:     "tark1qplayer",
		Status:     domain.PaymentFinalized,
		ObservedAt: time.Now().Unix(),
	}
}
