package domain

import (
	"fmt"

	"github.com/ark-network/ark-dice/pkg/fairness"
	"github.com/google/uuid"
)

// GameResult is the settlement record of a bet. Outcome fields are computed once, when the
// result is created, and never change afterwards.
type GameResult struct {
	Id              string
	Nonce           string
	NonceCommitment string
	RolledNumber    uint16
	TargetNumber    uint16
	Multiplier      Multiplier
	InputTxid       string
	OutputTxid      string
	BetAmount       uint64
	WinningAmount   uint64
	PlayerAddress   string
	IsWinner        bool
	PaymentSettled  bool
	PayoutAttempts  int
	LastPayoutError string
	Timestamp       int64
}

// NewGameResult scores the payment against the nonce snapshot bound to it.
func NewGameResult(
	payment IncomingPayment, snapshot NonceSnapshot, multiplier Multiplier, now int64,
) (*GameResult, error) {
	if snapshot.IsZero() {
		return nil, fmt.Errorf("missing nonce")
	}
	if len(payment.Txid) <= 0 {
		return nil, fmt.Errorf("missing txid")
	}
	if len(payment.Sender) <= 0 {
		return nil, fmt.Errorf("missing sender")
	}

	outcome := fairness.Compute(snapshot.Secret, payment.Txid, uint64(multiplier))
	winningAmount := uint64(0)
	if outcome.IsWinner {
		winningAmount = fairness.Payout(payment.Amount, uint64(multiplier))
	}

	return &GameResult{
		Id:              uuid.New().String(),
		Nonce:           snapshot.Secret,
		NonceCommitment: snapshot.Commitment,
		RolledNumber:    outcome.RolledNumber,
		TargetNumber:    outcome.TargetNumber,
		Multiplier:      multiplier,
		InputTxid:       payment.Txid,
		BetAmount:       payment.Amount,
		WinningAmount:   winningAmount,
		PlayerAddress:   payment.Sender,
		IsWinner:        outcome.IsWinner,
		Timestamp:       now,
	}, nil
}

// IsSettled is true for losses and for wins that have been paid.
func (r GameResult) IsSettled() bool {
	return !r.IsWinner || r.PaymentSettled
}

func (r GameResult) OwesPayout() bool {
	return r.IsWinner && !r.PaymentSettled && r.WinningAmount > 0
}

// PayoutReference is the idempotency key passed to the wallet when paying this result.
func (r GameResult) PayoutReference() string {
	return fmt.Sprintf("payout:%s", r.Id)
}
