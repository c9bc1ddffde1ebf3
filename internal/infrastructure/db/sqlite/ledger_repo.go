package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/internal/infrastructure/db/sqlite/sqlc/queries"
)

type ownTxRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewOwnTransactionRepository(config ...interface{}) (domain.OwnTransactionRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("cannot open own tx repository: invalid config")
	}

	return &ownTxRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *ownTxRepository) AddOwnTransaction(ctx context.Context, tx domain.OwnTransaction) error {
	return r.querier.InsertOwnTransaction(ctx, queries.InsertOwnTransactionParams{
		TxID:            tx.Txid,
		TransactionType: string(tx.Type),
		GameResultID:    nullString(tx.GameResultId),
		CreatedAt:       tx.CreatedAt,
	})
}

func (r *ownTxRepository) Contains(ctx context.Context, txid string) (bool, error) {
	count, err := r.querier.ContainsOwnTransaction(ctx, txid)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ownTxRepository) Close() {
	_ = r.db.Close()
}

type donationRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewDonationRepository(config ...interface{}) (domain.DonationRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("cannot open donation repository: invalid config")
	}

	return &donationRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *donationRepository) AddDonation(ctx context.Context, donation *domain.Donation) (bool, error) {
	rows, err := r.querier.InsertDonation(ctx, queries.InsertDonationParams{
		ID:        donation.Id,
		InputTxID: donation.InputTxid,
		Address:   donation.Address,
		Sender:    donation.Sender,
		Amount:    int64(donation.Amount),
		Timestamp: donation.Timestamp,
	})
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *donationRepository) ListDonations(ctx context.Context, limit int) ([]domain.Donation, error) {
	rows, err := r.querier.SelectDonations(ctx, int64(limit))
	if err != nil {
		return nil, err
	}
	donations := make([]domain.Donation, 0, len(rows))
	for _, row := range rows {
		donations = append(donations, domain.Donation{
			Id:        row.ID,
			Amount:    uint64(row.Amount),
			Sender:    row.Sender,
			InputTxid: row.InputTxID,
			Address:   row.Address,
			Timestamp: row.Timestamp,
		})
	}
	return donations, nil
}

func (r *donationRepository) Close() {
	_ = r.db.Close()
}

type unresolvedPaymentRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewUnresolvedPaymentRepository(config ...interface{}) (domain.UnresolvedPaymentRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("cannot open unresolved payment repository: invalid config")
	}

	return &unresolvedPaymentRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *unresolvedPaymentRepository) AddUnresolvedPayment(
	ctx context.Context, payment domain.UnresolvedPayment,
) (bool, error) {
	rows, err := r.querier.InsertUnresolvedPayment(ctx, queries.InsertUnresolvedPaymentParams{
		TxID:      payment.Txid,
		Address:   payment.Address,
		Sender:    payment.Sender,
		Amount:    int64(payment.Amount),
		Reason:    payment.Reason,
		Timestamp: payment.Timestamp,
	})
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *unresolvedPaymentRepository) ListUnresolvedPayments(
	ctx context.Context,
) ([]domain.UnresolvedPayment, error) {
	rows, err := r.querier.SelectUnresolvedPayments(ctx)
	if err != nil {
		return nil, err
	}
	payments := make([]domain.UnresolvedPayment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, domain.UnresolvedPayment{
			Txid:      row.TxID,
			Address:   row.Address,
			Amount:    uint64(row.Amount),
			Sender:    row.Sender,
			Reason:    row.Reason,
			Timestamp: row.Timestamp,
		})
	}
	return payments, nil
}

func (r *unresolvedPaymentRepository) Close() {
	_ = r.db.Close()
}
