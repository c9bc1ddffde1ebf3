package domain

import (
	"fmt"
	"strings"
)

type PaymentStatus int

const (
	PaymentPending PaymentStatus = iota
	PaymentPreconfirmed
	PaymentFinalized
)

func (s PaymentStatus) String() string {
	switch s {
	case PaymentPending:
		return "pending"
	case PaymentPreconfirmed:
		return "preconfirmed"
	case PaymentFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch strings.ToLower(s) {
	case "pending":
		return PaymentPending, nil
	case "preconfirmed":
		return PaymentPreconfirmed, nil
	case "finalized":
		return PaymentFinalized, nil
	default:
		return 0, fmt.Errorf("unknown payment status %s", s)
	}
}

// IncomingPayment is a payment to one of the game addresses as reported by the wallet.
type IncomingPayment struct {
	Address    string
	Txid       string
	Amount     uint64
	Sender     string
	Status     PaymentStatus
	ObservedAt int64
}

func (p IncomingPayment) IsConfirmed(min PaymentStatus) bool {
	return p.Status >= min
}
