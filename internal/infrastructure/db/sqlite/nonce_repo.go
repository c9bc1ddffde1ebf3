package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/internal/infrastructure/db/sqlite/sqlc/queries"
)

type nonceRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewNonceRepository(config ...interface{}) (domain.NonceRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("cannot open nonce repository: invalid config, expected db at 0")
	}

	return &nonceRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *nonceRepository) GetCurrent(ctx context.Context) (*domain.Nonce, int64, error) {
	row, err := r.querier.SelectCurrentNonce(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, domain.ErrNoActiveNonce
		}
		return nil, 0, err
	}
	nonce := toNonce(row.Nonce)
	return &nonce, row.Version, nil
}

func (r *nonceRepository) Rotate(
	ctx context.Context, version int64, next *domain.Nonce,
) (int64, error) {
	txBody := func(querierWithTx *queries.Queries) error {
		if version > 0 {
			state, err := querierWithTx.SelectNonceState(ctx)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return domain.ErrNonceVersionConflict
				}
				return err
			}
			if state.Version != version {
				return domain.ErrNonceVersionConflict
			}
			if _, err := querierWithTx.ExpireNonce(ctx, state.NonceHash); err != nil {
				return err
			}
		}

		if err := querierWithTx.InsertNonce(ctx, queries.InsertNonceParams{
			Nonce:     next.Secret,
			NonceHash: next.Commitment,
			CreatedAt: next.CreatedAt,
			ExpiresAt: next.ExpiresAt,
		}); err != nil {
			return err
		}

		var (
			rows int64
			err  error
		)
		if version > 0 {
			rows, err = querierWithTx.UpdateNonceState(ctx, queries.UpdateNonceStateParams{
				NonceHash: next.Commitment,
				Version:   version,
			})
		} else {
			rows, err = querierWithTx.InsertNonceState(ctx, next.Commitment)
		}
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrNonceVersionConflict
		}
		return nil
	}

	if err := execTx(ctx, r.db, txBody); err != nil {
		return 0, err
	}
	return version + 1, nil
}

func (r *nonceRepository) GetNonce(ctx context.Context, commitment string) (*domain.Nonce, error) {
	row, err := r.querier.SelectNonceByHash(ctx, commitment)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNonceNotFound
		}
		return nil, err
	}
	nonce := toNonce(row)
	return &nonce, nil
}

func (r *nonceRepository) ListNonces(ctx context.Context, limit int) ([]domain.Nonce, error) {
	rows, err := r.querier.SelectNonces(ctx, int64(limit))
	if err != nil {
		return nil, err
	}
	nonces := make([]domain.Nonce, 0, len(rows))
	for _, row := range rows {
		nonces = append(nonces, toNonce(row))
	}
	return nonces, nil
}

func (r *nonceRepository) Close() {
	_ = r.db.Close()
}

func toNonce(row queries.Nonce) domain.Nonce {
	status := domain.NonceActive
	if row.Expired {
		status = domain.NonceExpired
	}
	return domain.Nonce{
		Secret:     row.Nonce,
		Commitment: row.NonceHash,
		CreatedAt:  row.CreatedAt,
		ExpiresAt:  row.ExpiresAt,
		Status:     status,
	}
}
