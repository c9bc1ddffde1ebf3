package application

import (
	"context"
	"time"

	"github.com/ark-network/ark-dice/internal/core/domain"
)

type Service interface {
	Start() error
	Stop()
	GetInfo(ctx context.Context) (*ServiceInfo, error)
	GetGameAddresses(ctx context.Context) []domain.GameAddress
	GetCurrentNonce(ctx context.Context) (*domain.Nonce, error)
	ListNonces(ctx context.Context, limit int) ([]domain.Nonce, error)
	RevealNonce(ctx context.Context, commitment string) (*domain.Nonce, error)
	ListGameResults(ctx context.Context, page, size int) ([]domain.GameResult, int, error)
	GetGameResult(ctx context.Context, txid string) (*domain.GameResult, error)
	ListDonations(ctx context.Context, limit int) ([]domain.Donation, error)
	Verify(req VerifyRequest) (*VerifyResult, error)
	SubscribeEvents() *Subscription
	UnsubscribeEvents(id string)

	// Operator methods
	RotateNonce(ctx context.Context) (*domain.Nonce, error)
	RetryPayouts(ctx context.Context) (*PayoutReport, error)
	PendingPayouts(ctx context.Context) ([]domain.GameResult, error)
	Consolidate(ctx context.Context) (string, error)
	RecoverMissedPayments(ctx context.Context) (*RecoveryReport, error)
	ListUnresolvedPayments(ctx context.Context) ([]domain.UnresolvedPayment, error)
}

type Config struct {
	MaxPayout             uint64
	NonceValidity         time.Duration
	NonceCheckInterval    time.Duration
	PayoutInterval        time.Duration
	PayoutMaxAttempts     int
	PayoutBackoffBase     time.Duration
	PayoutBackoffMax      time.Duration
	PayoutClaimTTL        time.Duration
	ConsolidationInterval time.Duration
	PaymentQueueSize      int
	Workers               int
	EventBufferSize       int
	MinConfirmation       domain.PaymentStatus
	OperatorProfile       string
	RecoverOnStart        bool
}

type ServiceInfo struct {
	Commitment      string
	NonceExpiresAt  int64
	MaxPayout       uint64
	Balance         uint64
	GameAddresses   []domain.GameAddress
	PendingPayouts  int
	MinConfirmation string
}

type VerifyRequest struct {
	Nonce      string
	Txid       string
	Multiplier uint64
	// Optional, checked against the computed outcome when set.
	RolledNumber *uint16
	IsWinner     *bool
}

type VerifyResult struct {
	Commitment   string
	RolledNumber uint16
	TargetNumber uint16
	IsWinner     bool
	Valid        bool
}

type PayoutReport struct {
	Paid    []domain.GameResult
	Failed  []PayoutFailure
	Skipped int
}

type PayoutFailure struct {
	GameResultId string
	Attempts     int
	Reason       string
}

type RecoveryReport struct {
	Scanned   int
	Processed int
	Failed    int
}

// FeedEvent is what live subscribers receive.
type FeedEvent struct {
	Topic         string
	GameResult    *domain.GameResult
	NonceRevealed bool
	Donation      *domain.Donation
}
