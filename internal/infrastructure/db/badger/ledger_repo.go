package badgerdb

import (
	"context"
	"errors"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type ownTxRepository struct {
	store *badgerhold.Store
}

func NewOwnTransactionRepository(config ...interface{}) (domain.OwnTransactionRepository, error) {
	store, err := storeFromConfig(config)
	if err != nil {
		return nil, err
	}
	return &ownTxRepository{store}, nil
}

func (r *ownTxRepository) AddOwnTransaction(ctx context.Context, tx domain.OwnTransaction) error {
	if err := r.store.Insert(tx.Txid, tx); err != nil && !errors.Is(err, badgerhold.ErrKeyExists) {
		return err
	}
	return nil
}

func (r *ownTxRepository) Contains(ctx context.Context, txid string) (bool, error) {
	var tx domain.OwnTransaction
	if err := r.store.Get(txid, &tx); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *ownTxRepository) Close() {
	closeStore(r.store)
}

type donationRepository struct {
	store *badgerhold.Store
}

func NewDonationRepository(config ...interface{}) (domain.DonationRepository, error) {
	store, err := storeFromConfig(config)
	if err != nil {
		return nil, err
	}
	return &donationRepository{store}, nil
}

func (r *donationRepository) AddDonation(
	ctx context.Context, donation *domain.Donation,
) (bool, error) {
	if err := r.store.Insert(donation.InputTxid, *donation); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *donationRepository) ListDonations(ctx context.Context, limit int) ([]domain.Donation, error) {
	query := (&badgerhold.Query{}).SortBy("Timestamp").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	donations := make([]domain.Donation, 0)
	if err := r.store.Find(&donations, query); err != nil {
		return nil, err
	}
	return donations, nil
}

func (r *donationRepository) Close() {
	closeStore(r.store)
}

type unresolvedPaymentRepository struct {
	store *badgerhold.Store
}

func NewUnresolvedPaymentRepository(config ...interface{}) (domain.UnresolvedPaymentRepository, error) {
	store, err := storeFromConfig(config)
	if err != nil {
		return nil, err
	}
	return &unresolvedPaymentRepository{store}, nil
}

func (r *unresolvedPaymentRepository) AddUnresolvedPayment(
	ctx context.Context, payment domain.UnresolvedPayment,
) (bool, error) {
	if err := r.store.Insert(payment.Txid, payment); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *unresolvedPaymentRepository) ListUnresolvedPayments(
	ctx context.Context,
) ([]domain.UnresolvedPayment, error) {
	payments := make([]domain.UnresolvedPayment, 0)
	query := (&badgerhold.Query{}).SortBy("Timestamp").Reverse()
	if err := r.store.Find(&payments, query); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *unresolvedPaymentRepository) Close() {
	closeStore(r.store)
}
