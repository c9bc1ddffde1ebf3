package ports

import (
	"context"

	"github.com/ark-network/ark-dice/internal/core/domain"
)

type WalletService interface {
	// GetGameAddresses returns the receiving address of every multiplier tier.
	GetGameAddresses(ctx context.Context) (map[domain.Multiplier]string, error)
	// SubscribePayments streams payments to the game addresses until ctx is done.
	SubscribePayments(ctx context.Context) (<-chan domain.IncomingPayment, error)
	// ListPayments returns the historical payments to the game addresses.
	ListPayments(ctx context.Context) ([]domain.IncomingPayment, error)
	// Send pays amount to address. Calls with the same reference must not pay twice.
	Send(ctx context.Context, address string, amount uint64, reference string) (string, error)
	Consolidate(ctx context.Context) (string, error)
	GetBalance(ctx context.Context) (uint64, error)
	Close()
}
