package db_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/internal/core/ports"
	"github.com/ark-network/ark-dice/internal/infrastructure/db"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	tests := []struct {
		name   string
		config db.ServiceConfig
	}{
		{
			name: "repo_manager_with_badger_stores",
			config: db.ServiceConfig{
				DataStoreType:   "badger",
				DataStoreConfig: []interface{}{"", nil},
			},
		},
		{
			name: "repo_manager_with_sqlite_stores",
			config: db.ServiceConfig{
				DataStoreType:   "sqlite",
				DataStoreConfig: []interface{}{t.TempDir()},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := db.NewService(tt.config)
			require.NoError(t, err)
			defer svc.Close()

			testNonceRepository(t, svc)
			testGameResultRepository(t, svc)
			testPayoutClaims(t, svc)
			testOwnTxRepository(t, svc)
			testDonationRepository(t, svc)
			testUnresolvedPaymentRepository(t, svc)
		})
	}
}

func TestInvalidService(t *testing.T) {
	_, err := db.NewService(db.ServiceConfig{DataStoreType: "postgres"})
	require.Error(t, err)

	_, err = db.NewService(db.ServiceConfig{
		DataStoreType:   "sqlite",
		DataStoreConfig: []interface{}{1},
	})
	require.EqualError(t, err, "invalid config")
}

func testNonceRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_nonce_repository", func(t *testing.T) {
		ctx := context.Background()
		repo := svc.Nonces()

		nonce, version, err := repo.GetCurrent(ctx)
		require.ErrorIs(t, err, domain.ErrNoActiveNonce)
		require.Nil(t, nonce)
		require.Zero(t, version)

		first := newNonce(t, time.Unix(1000, 0))
		version, err = repo.Rotate(ctx, 0, first)
		require.NoError(t, err)
		require.Equal(t, int64(1), version)

		current, version, err := repo.GetCurrent(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(1), version)
		require.Equal(t, *first, *current)

		// A second bootstrap loses against the first one.
		_, err = repo.Rotate(ctx, 0, newNonce(t, time.Unix(1000, 0)))
		require.ErrorIs(t, err, domain.ErrNonceVersionConflict)

		second := newNonce(t, time.Unix(2000, 0))
		version, err = repo.Rotate(ctx, 1, second)
		require.NoError(t, err)
		require.Equal(t, int64(2), version)

		// Stale version.
		_, err = repo.Rotate(ctx, 1, newNonce(t, time.Unix(3000, 0)))
		require.ErrorIs(t, err, domain.ErrNonceVersionConflict)

		current, version, err = repo.GetCurrent(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(2), version)
		require.Equal(t, second.Commitment, current.Commitment)
		require.Equal(t, domain.NonceActive, current.Status)

		expired, err := repo.GetNonce(ctx, first.Commitment)
		require.NoError(t, err)
		require.Equal(t, domain.NonceExpired, expired.Status)
		require.Equal(t, first.Secret, expired.Secret)

		_, err = repo.GetNonce(ctx, randomString(32))
		require.ErrorIs(t, err, domain.ErrNonceNotFound)

		nonces, err := repo.ListNonces(ctx, 10)
		require.NoError(t, err)
		require.Len(t, nonces, 2)
		require.Equal(t, second.Commitment, nonces[0].Commitment)
		require.Equal(t, first.Commitment, nonces[1].Commitment)

		nonces, err = repo.ListNonces(ctx, 1)
		require.NoError(t, err)
		require.Len(t, nonces, 1)
	})

	t.Run("test_concurrent_rotation", func(t *testing.T) {
		ctx := context.Background()
		repo := svc.Nonces()

		_, version, err := repo.GetCurrent(ctx)
		require.NoError(t, err)

		var (
			wg      sync.WaitGroup
			success atomic.Int32
		)
		for i := 0; i < 5; i++ {
			next := newNonce(t, time.Unix(int64(4000+i), 0))
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := repo.Rotate(ctx, version, next); err == nil {
					success.Add(1)
				}
			}()
		}
		wg.Wait()
		require.Equal(t, int32(1), success.Load())

		_, newVersion, err := repo.GetCurrent(ctx)
		require.NoError(t, err)
		require.Equal(t, version+1, newVersion)
	})
}

func testGameResultRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_game_result_repository", func(t *testing.T) {
		ctx := context.Background()
		repo := svc.GameResults()

		_, err := repo.GetGameResult(ctx, "unknown")
		require.ErrorIs(t, err, domain.ErrGameResultNotFound)
		_, err = repo.GetGameResultByInputTxid(ctx, "unknown")
		require.ErrorIs(t, err, domain.ErrGameResultNotFound)

		results := make([]*domain.GameResult, 0, 5)
		for i := 0; i < 5; i++ {
			result := newGameResult(t, int64(100+i))
			results = append(results, result)

			inserted, err := repo.AddGameResult(ctx, result)
			require.NoError(t, err)
			require.True(t, inserted)
		}

		// Same input txid, different id: no-op.
		dup := *results[0]
		dup.Id = "another-id"
		inserted, err := repo.AddGameResult(ctx, &dup)
		require.NoError(t, err)
		require.False(t, inserted)

		_, err = repo.GetGameResult(ctx, dup.Id)
		require.ErrorIs(t, err, domain.ErrGameResultNotFound)

		got, err := repo.GetGameResult(ctx, results[0].Id)
		require.NoError(t, err)
		require.Equal(t, *results[0], *got)

		got, err = repo.GetGameResultByInputTxid(ctx, results[1].InputTxid)
		require.NoError(t, err)
		require.Equal(t, *results[1], *got)

		page, total, err := repo.ListGameResults(ctx, 1, 2)
		require.NoError(t, err)
		require.GreaterOrEqual(t, total, 5)
		require.Len(t, page, 2)
		require.GreaterOrEqual(t, page[0].Timestamp, page[1].Timestamp)

		page2, _, err := repo.ListGameResults(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, page2, 2)
		require.NotEqual(t, page[0].Id, page2[0].Id)
	})
}

func testPayoutClaims(t *testing.T, svc ports.RepoManager) {
	t.Run("test_payout_claims", func(t *testing.T) {
		ctx := context.Background()
		repo := svc.GameResults()

		winner := newGameResult(t, 500)
		winner.IsWinner = true
		winner.WinningAmount = 2000
		_, err := repo.AddGameResult(ctx, winner)
		require.NoError(t, err)

		loser := newGameResult(t, 501)
		_, err = repo.AddGameResult(ctx, loser)
		require.NoError(t, err)

		unpaid, err := repo.GetUnpaidWinners(ctx)
		require.NoError(t, err)
		require.True(t, containsResult(unpaid, winner.Id))
		require.False(t, containsResult(unpaid, loser.Id))

		claimed, err := repo.ClaimPayout(ctx, loser.Id, "a", 1000, 400)
		require.NoError(t, err)
		require.False(t, claimed)

		claimed, err = repo.ClaimPayout(ctx, winner.Id, "a", 1000, 400)
		require.NoError(t, err)
		require.True(t, claimed)

		// Held by "a" and not stale.
		claimed, err = repo.ClaimPayout(ctx, winner.Id, "b", 1001, 900)
		require.NoError(t, err)
		require.False(t, claimed)

		attempts, err := repo.ReleasePayout(ctx, winner.Id, "wallet offline")
		require.NoError(t, err)
		require.Equal(t, 1, attempts)

		got, err := repo.GetGameResult(ctx, winner.Id)
		require.NoError(t, err)
		require.Equal(t, 1, got.PayoutAttempts)
		require.Equal(t, "wallet offline", got.LastPayoutError)
		require.False(t, got.PaymentSettled)

		// Not claimed anymore.
		err = repo.CompletePayout(ctx, winner.Id, randomString(32), 1002)
		require.ErrorIs(t, err, domain.ErrPayoutNotClaimed)

		claimed, err = repo.ClaimPayout(ctx, winner.Id, "b", 1003, 900)
		require.NoError(t, err)
		require.True(t, claimed)

		// Stale claim can be taken over.
		claimed, err = repo.ClaimPayout(ctx, winner.Id, "c", 2000, 1500)
		require.NoError(t, err)
		require.True(t, claimed)

		payoutTxid := randomString(32)
		err = repo.CompletePayout(ctx, winner.Id, payoutTxid, 2001)
		require.NoError(t, err)

		got, err = repo.GetGameResult(ctx, winner.Id)
		require.NoError(t, err)
		require.True(t, got.PaymentSettled)
		require.True(t, got.IsSettled())
		require.Equal(t, payoutTxid, got.OutputTxid)

		isOwn, err := svc.OwnTxs().Contains(ctx, payoutTxid)
		require.NoError(t, err)
		require.True(t, isOwn)

		unpaid, err = repo.GetUnpaidWinners(ctx)
		require.NoError(t, err)
		require.False(t, containsResult(unpaid, winner.Id))

		// Already settled.
		err = repo.CompletePayout(ctx, winner.Id, randomString(32), 2002)
		require.ErrorIs(t, err, domain.ErrPayoutNotClaimed)
		claimed, err = repo.ClaimPayout(ctx, winner.Id, "d", 3000, 3000)
		require.NoError(t, err)
		require.False(t, claimed)

		_, err = repo.ReleasePayout(ctx, "unknown", "boom")
		require.ErrorIs(t, err, domain.ErrGameResultNotFound)
	})
}

func testOwnTxRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_own_tx_repository", func(t *testing.T) {
		ctx := context.Background()
		repo := svc.OwnTxs()

		txid := randomString(32)
		contains, err := repo.Contains(ctx, txid)
		require.NoError(t, err)
		require.False(t, contains)

		tx := domain.OwnTransaction{
			Txid:      txid,
			Type:      domain.OwnTxConsolidation,
			CreatedAt: time.Now().Unix(),
		}
		require.NoError(t, repo.AddOwnTransaction(ctx, tx))
		require.NoError(t, repo.AddOwnTransaction(ctx, tx))

		contains, err = repo.Contains(ctx, txid)
		require.NoError(t, err)
		require.True(t, contains)
	})
}

func testDonationRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_donation_repository", func(t *testing.T) {
		ctx := context.Background()
		repo := svc.Donations()

		for i := 0; i < 3; i++ {
			donation := &domain.Donation{
				Id:        randomString(16),
				Amount:    uint64(100000 + i),
				Sender:    "ark1sender",
				InputTxid: randomString(32),
				Address:   "ark1game",
				Timestamp: int64(10 + i),
			}
			inserted, err := repo.AddDonation(ctx, donation)
			require.NoError(t, err)
			require.True(t, inserted)

			dup := *donation
			dup.Id = randomString(16)
			inserted, err = repo.AddDonation(ctx, &dup)
			require.NoError(t, err)
			require.False(t, inserted)
		}

		donations, err := repo.ListDonations(ctx, 2)
		require.NoError(t, err)
		require.Len(t, donations, 2)
		require.Equal(t, int64(12), donations[0].Timestamp)
		require.Equal(t, uint64(100002), donations[0].Amount)
	})
}

func testUnresolvedPaymentRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("test_unresolved_payment_repository", func(t *testing.T) {
		ctx := context.Background()
		repo := svc.UnresolvedPayments()

		payment := domain.UnresolvedPayment{
			Txid:      randomString(32),
			Address:   "ark1unknown",
			Amount:    1000,
			Reason:    domain.UnresolvedUnknownAddress,
			Timestamp: 10,
		}
		inserted, err := repo.AddUnresolvedPayment(ctx, payment)
		require.NoError(t, err)
		require.True(t, inserted)

		inserted, err = repo.AddUnresolvedPayment(ctx, payment)
		require.NoError(t, err)
		require.False(t, inserted)

		payments, err := repo.ListUnresolvedPayments(ctx)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		require.Equal(t, payment, payments[0])
	})
}

func newNonce(t *testing.T, now time.Time) *domain.Nonce {
	nonce, err := domain.NewNonce(now, time.Hour)
	require.NoError(t, err)
	return nonce
}

func newGameResult(t *testing.T, timestamp int64) *domain.GameResult {
	snapshot := domain.NonceSnapshot{
		Secret:     randomString(32),
		Commitment: randomString(32),
		Version:    1,
	}
	payment := domain.IncomingPayment{
		Address: "ark1game",
		Txid:    randomString(32),
		Amount:  1000,
		Sender:  fmt.Sprintf("ark1player%d", timestamp),
		Status:  domain.PaymentFinalized,
	}
	result, err := domain.NewGameResult(payment, snapshot, 5000, timestamp)
	require.NoError(t, err)
	// Pin the outcome so assertions don't depend on the random txid.
	result.IsWinner = false
	result.WinningAmount = 0
	return result
}

func containsResult(results []domain.GameResult, id string) bool {
	for _, r := range results {
		if r.Id == id {
			return true
		}
	}
	return false
}

func randomString(len int) string {
	buf := make([]byte, len)
	// nolint
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
