package domain

import "context"

type GameResultRepository interface {
	// AddGameResult stores the result unless one with the same input txid exists, in which
	// case it returns false and no error.
	AddGameResult(ctx context.Context, result *GameResult) (bool, error)
	GetGameResult(ctx context.Context, id string) (*GameResult, error)
	GetGameResultByInputTxid(ctx context.Context, txid string) (*GameResult, error)
	// ListGameResults returns a page of results, most recent first, and the total count.
	ListGameResults(ctx context.Context, page, size int) ([]GameResult, int, error)
	GetUnpaidWinners(ctx context.Context) ([]GameResult, error)
	// ClaimPayout marks an unpaid winner as being paid by claimant. Claims older than
	// staleBefore can be taken over. Returns false if someone else holds the claim.
	ClaimPayout(ctx context.Context, id, claimant string, now, staleBefore int64) (bool, error)
	// CompletePayout stores the payout transaction and marks the result as paid, atomically.
	CompletePayout(ctx context.Context, id, outputTxid string, now int64) error
	// ReleasePayout drops the claim after a failed attempt and returns the attempts so far.
	ReleasePayout(ctx context.Context, id, reason string) (int, error)
	Close()
}

type OwnTransactionRepository interface {
	AddOwnTransaction(ctx context.Context, tx OwnTransaction) error
	Contains(ctx context.Context, txid string) (bool, error)
	Close()
}

type DonationRepository interface {
	AddDonation(ctx context.Context, donation *Donation) (bool, error)
	ListDonations(ctx context.Context, limit int) ([]Donation, error)
	Close()
}

type UnresolvedPaymentRepository interface {
	AddUnresolvedPayment(ctx context.Context, payment UnresolvedPayment) (bool, error)
	ListUnresolvedPayments(ctx context.Context) ([]UnresolvedPayment, error)
	Close()
}
