package domain_test

import (
	"testing"
	"time"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/pkg/fairness"
	"github.com/stretchr/testify/require"
)

var (
	snapshot = domain.NonceSnapshot{
		Secret:     "abc123",
		Commitment: fairness.Commitment("abc123"),
		Version:    1,
	}
	payment = domain.IncomingPayment{
		Address: "ark1game200",
		Txid:    "deadbeef00112233445566778899aabbccddeeff00112233445566778899aabb",
		Amount:  1000,
		Sender:  "ark1player",
		Status:  domain.PaymentFinalized,
	}
)

func TestGameResult(t *testing.T) {
	t.Run("new_game_result", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			result, err := domain.NewGameResult(payment, snapshot, 200, 100)
			require.NoError(t, err)
			require.NotNil(t, result)
			require.NotEmpty(t, result.Id)
			require.Equal(t, uint16(14357), result.RolledNumber)
			require.Equal(t, uint16(65535), result.TargetNumber)
			require.True(t, result.IsWinner)
			require.Equal(t, uint64(2000), result.WinningAmount)
			require.Equal(t, snapshot.Commitment, result.NonceCommitment)
			require.Equal(t, payment.Sender, result.PlayerAddress)
			require.False(t, result.PaymentSettled)
			require.False(t, result.IsSettled())
			require.True(t, result.OwesPayout())
			require.Equal(t, "payout:"+result.Id, result.PayoutReference())
		})

		t.Run("loss", func(t *testing.T) {
			p := payment
			p.Txid = "test_tx"
			s := snapshot
			s.Secret = "12345"
			result, err := domain.NewGameResult(p, s, 5000, 100)
			require.NoError(t, err)
			require.False(t, result.IsWinner)
			require.Zero(t, result.WinningAmount)
			require.True(t, result.IsSettled())
			require.False(t, result.OwesPayout())
		})

		t.Run("invalid", func(t *testing.T) {
			noSender := payment
			noSender.Sender = ""
			noTxid := payment
			noTxid.Txid = ""

			fixtures := []struct {
				payment     domain.IncomingPayment
				snapshot    domain.NonceSnapshot
				expectedErr string
			}{
				{
					payment:     payment,
					snapshot:    domain.NonceSnapshot{},
					expectedErr: "missing nonce",
				},
				{
					payment:     noTxid,
					snapshot:    snapshot,
					expectedErr: "missing txid",
				},
				{
					payment:     noSender,
					snapshot:    snapshot,
					expectedErr: "missing sender",
				},
			}

			for _, f := range fixtures {
				result, err := domain.NewGameResult(f.payment, f.snapshot, 200, 100)
				require.EqualError(t, err, f.expectedErr)
				require.Nil(t, result)
			}
		})
	})
}

func TestNonce(t *testing.T) {
	now := time.Unix(1700000000, 0)

	nonce, err := domain.NewNonce(now, time.Hour)
	require.NoError(t, err)
	require.Len(t, nonce.Secret, 64)
	require.Equal(t, fairness.Commitment(nonce.Secret), nonce.Commitment)
	require.Equal(t, domain.NonceActive, nonce.Status)
	require.Equal(t, now.Add(time.Hour).Unix(), nonce.ExpiresAt)

	require.False(t, nonce.IsExpired(now))
	require.True(t, nonce.IsExpired(now.Add(time.Hour)))

	require.Empty(t, nonce.Public().Secret)
	require.Equal(t, nonce.Commitment, nonce.Public().Commitment)

	nonce.Status = domain.NonceExpired
	require.Equal(t, nonce.Secret, nonce.Public().Secret)

	other, err := domain.NewNonce(now, time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, nonce.Secret, other.Secret)

	_, err = domain.NewNonce(now, 0)
	require.Error(t, err)

	snap := other.Snapshot(3)
	require.Equal(t, other.Secret, snap.Secret)
	require.Equal(t, int64(3), snap.Version)
}

func TestGameAddress(t *testing.T) {
	fixtures := []struct {
		multiplier     domain.Multiplier
		expectedTarget uint16
		expectedMaxBet uint64
		expectedString string
	}{
		{multiplier: 105, expectedTarget: 65535, expectedMaxBet: 95238, expectedString: "1.05x"},
		{multiplier: 2500, expectedTarget: 26214, expectedMaxBet: 4000, expectedString: "25.00x"},
		{multiplier: 100000, expectedTarget: 655, expectedMaxBet: 100, expectedString: "1000.00x"},
	}

	for _, f := range fixtures {
		t.Run(f.expectedString, func(t *testing.T) {
			addr, err := domain.NewGameAddress("ark1addr", f.multiplier, 100000)
			require.NoError(t, err)
			require.Equal(t, f.expectedTarget, addr.Target)
			require.Equal(t, f.expectedMaxBet, addr.MaxBetAmount)
			require.Equal(t, f.expectedString, f.multiplier.String())
			require.True(t, f.multiplier.IsValid())
		})
	}

	_, err := domain.NewGameAddress("", 200, 100000)
	require.EqualError(t, err, "missing address")
	require.False(t, domain.Multiplier(777).IsValid())
}

func TestPaymentStatus(t *testing.T) {
	p := payment
	p.Status = domain.PaymentPreconfirmed
	require.True(t, p.IsConfirmed(domain.PaymentPending))
	require.True(t, p.IsConfirmed(domain.PaymentPreconfirmed))
	require.False(t, p.IsConfirmed(domain.PaymentFinalized))

	status, err := domain.ParsePaymentStatus("Finalized")
	require.NoError(t, err)
	require.Equal(t, domain.PaymentFinalized, status)

	_, err = domain.ParsePaymentStatus("mined")
	require.Error(t, err)
}
