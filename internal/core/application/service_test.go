package application

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/internal/infrastructure/db"
	watermillbus "github.com/ark-network/ark-dice/internal/infrastructure/event-bus/watermill"
	inmemory "github.com/ark-network/ark-dice/internal/infrastructure/live-store/inmemory"
	timescheduler "github.com/ark-network/ark-dice/internal/infrastructure/scheduler/gocron"
	"github.com/ark-network/ark-dice/pkg/fairness"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const operatorProfile = "nprofile1operator"

func testConfig() Config {
	return Config{
		MaxPayout:          testMaxPayout,
		NonceValidity:      time.Hour,
		NonceCheckInterval: time.Hour,
		PayoutInterval:     time.Hour,
		PayoutMaxAttempts:  3,
		PayoutBackoffBase:  time.Second,
		PayoutBackoffMax:   time.Minute,
		PayoutClaimTTL:     10 * time.Minute,
		PaymentQueueSize:   10,
		Workers:            2,
		EventBufferSize:    10,
		MinConfirmation:    domain.PaymentFinalized,
		OperatorProfile:    operatorProfile,
		RecoverOnStart:     true,
	}
}

func TestService(t *testing.T) {
	ctx := context.Background()
	// Closed by the service on Stop.
	repoManager, err := db.NewService(db.ServiceConfig{
		DataStoreType:   "badger",
		DataStoreConfig: []interface{}{"", nil},
	})
	require.NoError(t, err)
	feed := make(chan domain.IncomingPayment, 10)

	wallet := &mockedWallet{}
	wallet.On("GetGameAddresses", mock.Anything).Return(testGameAddresses, nil)
	wallet.On("SubscribePayments", mock.Anything).Return(feed, nil)
	wallet.On("ListPayments", mock.Anything).Return([]domain.IncomingPayment{}, nil)
	wallet.On("GetBalance", mock.Anything).Return(uint64(21000), nil)
	wallet.On("Close").Return()

	notified := make(chan string, 10)
	notifier := &mockedNotifier{}
	notifier.On("Notify", mock.Anything, operatorProfile, mock.Anything).
		Run(func(args mock.Arguments) {
			notified <- args.String(2)
		}).
		Return(nil)

	svc, err := NewService(
		testConfig(), wallet, repoManager, timescheduler.NewScheduler(),
		inmemory.NewLiveStore(), watermillbus.NewGoChannelEventBus(), notifier,
	)
	require.NoError(t, err)
	require.NoError(t, svc.Start())

	info, err := svc.GetInfo(ctx)
	require.NoError(t, err)
	require.Len(t, info.GameAddresses, len(testGameAddresses))
	require.EqualValues(t, 21000, info.Balance)
	require.Len(t, info.Commitment, 64)

	nonce, err := svc.GetCurrentNonce(ctx)
	require.NoError(t, err)
	require.Empty(t, nonce.Secret)
	require.Equal(t, info.Commitment, nonce.Commitment)

	sub := svc.SubscribeEvents()

	bet := testPayment(txid(400), testGameAddresses[200], 1000)
	donation := testPayment(txid(401), testGameAddresses[2500], 10000)
	unknown := testPayment(txid(402), "tark1qnotours", 1000)
	feed <- bet
	feed <- donation
	feed <- unknown

	seen := map[string]FeedEvent{}
	for len(seen) < 2 {
		select {
		case event := <-sub.Events:
			if event.GameResult != nil {
				seen[event.GameResult.InputTxid] = event
			}
			if event.Donation != nil {
				seen[event.Donation.InputTxid] = event
			}
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for feed events")
		}
	}
	require.Equal(t, domain.TopicGameResult, seen[bet.Txid].Topic)
	require.False(t, seen[bet.Txid].NonceRevealed)
	require.Equal(t, domain.TopicDonation, seen[donation.Txid].Topic)

	// Unresolved payments and donations reach the operator.
	messages := make([]string, 0, 2)
	for len(messages) < 2 {
		select {
		case msg := <-notified:
			messages = append(messages, msg)
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for operator notifications")
		}
	}
	require.True(t, containsAny(messages, unknown.Txid))
	require.True(t, containsAny(messages, donation.Txid))

	result, err := svc.GetGameResult(ctx, bet.Txid)
	require.NoError(t, err)
	require.Equal(t, nonce.Commitment, result.NonceCommitment)
	require.Empty(t, result.Nonce)

	// The secret can be published only once rotated away.
	_, err = svc.RevealNonce(ctx, nonce.Commitment)
	require.ErrorIs(t, err, domain.ErrNonceNotRevealable)
	expired, err := svc.RotateNonce(ctx)
	require.NoError(t, err)
	revealed, err := svc.RevealNonce(ctx, nonce.Commitment)
	require.NoError(t, err)
	require.Equal(t, expired.Secret, revealed.Secret)

	result, err = svc.GetGameResult(ctx, bet.Txid)
	require.NoError(t, err)
	require.Equal(t, revealed.Secret, result.Nonce)

	verified, err := svc.Verify(VerifyRequest{
		Nonce:        revealed.Secret,
		Txid:         bet.Txid,
		Multiplier:   200,
		RolledNumber: &result.RolledNumber,
		IsWinner:     &result.IsWinner,
	})
	require.NoError(t, err)
	require.True(t, verified.Valid)
	require.Equal(t, nonce.Commitment, verified.Commitment)

	games, total, err := svc.ListGameResults(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, games, 1)

	unresolved, err := svc.ListUnresolvedPayments(ctx)
	require.NoError(t, err)
	require.Len(t, unresolved, 1)

	svc.UnsubscribeEvents(sub.Id)
	svc.Stop()
	wallet.AssertCalled(t, "Close")
}

func TestVerify(t *testing.T) {
	svc := &service{}
	nonce := "abc123"
	txid := "deadbeef0011"

	outcome := fairness.Compute(nonce, txid, 200)
	wrongRoll := outcome.RolledNumber + 1
	win := outcome.IsWinner

	testCases := []struct {
		description string
		req         VerifyRequest
		valid       bool
		expectError bool
	}{
		{"outcome only", VerifyRequest{Nonce: nonce, Txid: txid, Multiplier: 200}, true, false},
		{"matching claim", VerifyRequest{Nonce: nonce, Txid: txid, Multiplier: 200, IsWinner: &win}, true, false},
		{"wrong roll", VerifyRequest{Nonce: nonce, Txid: txid, Multiplier: 200, RolledNumber: &wrongRoll}, false, false},
		{"missing nonce", VerifyRequest{Txid: txid, Multiplier: 200}, false, true},
		{"missing txid", VerifyRequest{Nonce: nonce, Multiplier: 200}, false, true},
		{"unknown multiplier", VerifyRequest{Nonce: nonce, Txid: txid, Multiplier: 123}, false, true},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			res, err := svc.Verify(tc.req)
			if tc.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.valid, res.Valid)
			require.Equal(t, outcome.RolledNumber, res.RolledNumber)
			require.EqualValues(t, fairness.MaxRoll, res.TargetNumber)
		})
	}
}

func TestInvalidService(t *testing.T) {
	repoManager := newTestLedger(t)

	wallet := &mockedWallet{}
	wallet.On("GetGameAddresses", mock.Anything).
		Return(map[domain.Multiplier]string{123: "tark1qbad"}, nil)

	_, err := NewService(
		testConfig(), wallet, repoManager, timescheduler.NewScheduler(),
		inmemory.NewLiveStore(), watermillbus.NewGoChannelEventBus(), &mockedNotifier{},
	)
	require.Error(t, err)

	cfg := testConfig()
	cfg.MaxPayout = 0
	_, err = NewService(
		cfg, wallet, repoManager, timescheduler.NewScheduler(),
		inmemory.NewLiveStore(), watermillbus.NewGoChannelEventBus(), &mockedNotifier{},
	)
	require.Error(t, err)
}

func containsAny(messages []string, substr string) bool {
	for _, m := range messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func TestTasksStopWithService(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &service{ctx: ctx, cancel: cancel}

	var finished atomic.Bool
	started := make(chan struct{})
	go s.task("long", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})()
	<-started

	var ran atomic.Int32
	wg := &sync.WaitGroup{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.task("short", func(context.Context) { ran.Add(1) })()
		}()
	}

	s.stopTasks()
	require.True(t, finished.Load())
	wg.Wait()

	count := ran.Load()
	s.task("late", func(context.Context) { ran.Add(1) })()
	require.Equal(t, count, ran.Load())

	// A panicking task still releases its slot.
	s2ctx, s2cancel := context.WithCancel(context.Background())
	s2 := &service{ctx: s2ctx, cancel: s2cancel}
	s2.task("panic", func(context.Context) { panic("boom") })()
	s2.stopTasks()
}
