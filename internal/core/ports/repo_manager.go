package ports

import "github.com/ark-network/ark-dice/internal/core/domain"

type RepoManager interface {
	Nonces() domain.NonceRepository
	GameResults() domain.GameResultRepository
	OwnTxs() domain.OwnTransactionRepository
	Donations() domain.DonationRepository
	UnresolvedPayments() domain.UnresolvedPaymentRepository
	Close()
}
