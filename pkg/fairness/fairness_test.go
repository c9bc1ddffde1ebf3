package fairness_test

import (
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/ark-network/ark-dice/pkg/fairness"
	"github.com/stretchr/testify/require"
)

type fixtures struct {
	Commitments []struct {
		Secret   string `json:"secret"`
		Expected string `json:"expected"`
	} `json:"commitments"`
	Outcomes []struct {
		Nonce        string `json:"nonce"`
		Txid         string `json:"txid"`
		Multiplier   uint64 `json:"multiplier"`
		RolledNumber uint16 `json:"rolledNumber"`
		TargetNumber uint16 `json:"targetNumber"`
		IsWin        bool   `json:"isWin"`
	} `json:"outcomes"`
}

func loadFixtures(t *testing.T) fixtures {
	t.Helper()
	file, err := os.ReadFile("testdata/outcomes.json")
	require.NoError(t, err)

	var f fixtures
	require.NoError(t, json.Unmarshal(file, &f))
	return f
}

func TestCommitment(t *testing.T) {
	f := loadFixtures(t)

	for _, c := range f.Commitments {
		t.Run(c.Secret, func(t *testing.T) {
			commitment := fairness.Commitment(c.Secret)
			require.Equal(t, c.Expected, commitment)
			require.Len(t, commitment, 64)
			require.True(t, fairness.VerifyCommitment(c.Secret, c.Expected))
			require.False(t, fairness.VerifyCommitment(c.Secret+"x", c.Expected))
		})
	}
}

func TestCompute(t *testing.T) {
	f := loadFixtures(t)

	for _, o := range f.Outcomes {
		t.Run(fmt.Sprintf("%s/%d", o.Txid, o.Multiplier), func(t *testing.T) {
			outcome := fairness.Compute(o.Nonce, o.Txid, o.Multiplier)
			require.Equal(t, o.RolledNumber, outcome.RolledNumber)
			require.Equal(t, o.TargetNumber, outcome.TargetNumber)
			require.Equal(t, o.IsWin, outcome.IsWinner)

			again := fairness.Compute(o.Nonce, o.Txid, o.Multiplier)
			require.Equal(t, outcome, again)

			require.True(t, fairness.Verify(o.Nonce, o.Txid, o.Multiplier, o.RolledNumber, o.IsWin))
			require.False(t, fairness.Verify(o.Nonce, o.Txid, o.Multiplier, o.RolledNumber, !o.IsWin))
		})
	}
}

func TestTarget(t *testing.T) {
	fixtures := []struct {
		multiplier uint64
		expected   uint16
	}{
		{multiplier: 105, expected: 65535},
		{multiplier: 200, expected: 65535},
		{multiplier: 1000, expected: 65535},
		{multiplier: 2500, expected: 26214},
		{multiplier: 5000, expected: 13107},
		{multiplier: 10000, expected: 6553},
		{multiplier: 100000, expected: 655},
		{multiplier: 0, expected: 65535},
	}

	for _, f := range fixtures {
		t.Run(fmt.Sprintf("x%d", f.multiplier), func(t *testing.T) {
			require.Equal(t, f.expected, fairness.Target(f.multiplier))
		})
	}
}

func TestTargetMonotonic(t *testing.T) {
	prev := fairness.Target(1)
	for m := uint64(2); m <= 200000; m += 97 {
		target := fairness.Target(m)
		require.LessOrEqual(t, target, prev)
		prev = target
	}
}

func TestPayout(t *testing.T) {
	fixtures := []struct {
		bet        uint64
		multiplier uint64
		expected   uint64
	}{
		{bet: 1000, multiplier: 200, expected: 2000},
		{bet: 1000, multiplier: 105, expected: 1050},
		{bet: 999, multiplier: 133, expected: 1328},
		{bet: 1, multiplier: 150, expected: 1},
		{bet: 0, multiplier: 10000, expected: 0},
	}

	for _, f := range fixtures {
		t.Run(fmt.Sprintf("%d_x%d", f.bet, f.multiplier), func(t *testing.T) {
			require.Equal(t, f.expected, fairness.Payout(f.bet, f.multiplier))
		})
	}
}

func TestMaxBet(t *testing.T) {
	require.Equal(t, uint64(50000), fairness.MaxBet(100000, 200))
	require.Equal(t, uint64(1000), fairness.MaxBet(100000, 10000))
	require.Zero(t, fairness.MaxBet(100000, 0))
	require.LessOrEqual(t, fairness.Payout(fairness.MaxBet(100000, 133), 133), uint64(100000))
}

func TestRollRange(t *testing.T) {
	for i := 0; i < 500; i++ {
		outcome := fairness.Compute("nonce", fmt.Sprintf("tx%d", i), 300)
		require.Equal(t, outcome.RolledNumber < outcome.TargetNumber, outcome.IsWinner)
	}
	// Multipliers up to 1000 clamp the target to the max roll.
	require.EqualValues(t, fairness.MaxRoll, fairness.Target(300))
	require.InDelta(t, 65535.0/65536.0, fairness.WinProbability(300), 1e-9)

	require.EqualValues(t, 26214, fairness.Target(2500))
	require.InDelta(t, 26214.0/65536.0, fairness.WinProbability(2500), 1e-9)
	for i := 0; i < 500; i++ {
		outcome := fairness.Compute("nonce", fmt.Sprintf("tx%d", i), 2500)
		require.Equal(t, outcome.RolledNumber < 26214, outcome.IsWinner)
	}
}
