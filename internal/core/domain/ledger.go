package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type OwnTxType string

const (
	OwnTxPayout        OwnTxType = "payout"
	OwnTxConsolidation OwnTxType = "consolidation"
)

// OwnTransaction is a transaction broadcast by the server. Payments whose txid matches one
// are never scored.
type OwnTransaction struct {
	Txid         string
	Type         OwnTxType
	GameResultId string
	CreatedAt    int64
}

// Donation is an incoming payment above the max bet of its address. It is kept, not scored.
type Donation struct {
	Id        string
	Amount    uint64
	Sender    string
	InputTxid string
	Address   string
	Timestamp int64
}

func NewDonation(payment IncomingPayment, now int64) *Donation {
	return &Donation{
		Id:        uuid.New().String(),
		Amount:    payment.Amount,
		Sender:    payment.Sender,
		InputTxid: payment.Txid,
		Address:   payment.Address,
		Timestamp: now,
	}
}

const (
	UnresolvedUnknownAddress = "unknown address"
	UnresolvedUnknownSender  = "unknown sender"
)

// UnresolvedPayment is a payment that could not be scored and needs operator review.
type UnresolvedPayment struct {
	Txid      string
	Address   string
	Amount    uint64
	Sender    string
	Reason    string
	Timestamp int64
}

func NewUnresolvedPayment(payment IncomingPayment, reason string, now int64) UnresolvedPayment {
	return UnresolvedPayment{
		Txid:      payment.Txid,
		Address:   payment.Address,
		Amount:    payment.Amount,
		Sender:    payment.Sender,
		Reason:    reason,
		Timestamp: now,
	}
}

func (u UnresolvedPayment) String() string {
	return fmt.Sprintf("%s (%d sats to %s): %s", u.Txid, u.Amount, u.Address, u.Reason)
}
