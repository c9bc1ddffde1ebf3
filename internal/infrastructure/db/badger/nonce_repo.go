package badgerdb

import (
	"context"
	"errors"
	"sort"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const nonceStateKey = "nonce_state"

type nonceDTO struct {
	Commitment string
	Secret     string
	CreatedAt  int64
	ExpiresAt  int64
	Expired    bool
	Seq        int64
}

type nonceStateDTO struct {
	Commitment string
	Version    int64
}

type nonceRepository struct {
	store *badgerhold.Store
}

func NewNonceRepository(config ...interface{}) (domain.NonceRepository, error) {
	store, err := storeFromConfig(config)
	if err != nil {
		return nil, err
	}
	return &nonceRepository{store}, nil
}

func (r *nonceRepository) GetCurrent(ctx context.Context) (*domain.Nonce, int64, error) {
	var state nonceStateDTO
	if err := r.store.Get(nonceStateKey, &state); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, 0, domain.ErrNoActiveNonce
		}
		return nil, 0, err
	}

	var dto nonceDTO
	if err := r.store.Get(state.Commitment, &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, 0, domain.ErrNoActiveNonce
		}
		return nil, 0, err
	}
	nonce := dto.toDomain()
	return &nonce, state.Version, nil
}

func (r *nonceRepository) Rotate(
	ctx context.Context, version int64, next *domain.Nonce,
) (int64, error) {
	err := update(r.store, func(tx *badger.Txn) error {
		var state nonceStateDTO
		err := r.store.TxGet(tx, nonceStateKey, &state)
		if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
			return err
		}
		if state.Version != version {
			return domain.ErrNonceVersionConflict
		}

		if len(state.Commitment) > 0 {
			var current nonceDTO
			if err := r.store.TxGet(tx, state.Commitment, &current); err != nil {
				return err
			}
			current.Expired = true
			if err := r.store.TxUpdate(tx, current.Commitment, current); err != nil {
				return err
			}
		}

		if err := r.store.TxInsert(tx, next.Commitment, nonceDTO{
			Commitment: next.Commitment,
			Secret:     next.Secret,
			CreatedAt:  next.CreatedAt,
			ExpiresAt:  next.ExpiresAt,
			Seq:        version + 1,
		}); err != nil {
			return err
		}

		return r.store.TxUpsert(tx, nonceStateKey, nonceStateDTO{
			Commitment: next.Commitment,
			Version:    version + 1,
		})
	})
	if err != nil {
		return 0, err
	}
	return version + 1, nil
}

func (r *nonceRepository) GetNonce(ctx context.Context, commitment string) (*domain.Nonce, error) {
	var dto nonceDTO
	if err := r.store.Get(commitment, &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrNonceNotFound
		}
		return nil, err
	}
	nonce := dto.toDomain()
	return &nonce, nil
}

func (r *nonceRepository) ListNonces(ctx context.Context, limit int) ([]domain.Nonce, error) {
	var dtos []nonceDTO
	if err := r.store.Find(&dtos, &badgerhold.Query{}); err != nil {
		return nil, err
	}
	sort.SliceStable(dtos, func(i, j int) bool {
		return dtos[i].Seq > dtos[j].Seq
	})
	if limit > 0 && len(dtos) > limit {
		dtos = dtos[:limit]
	}

	nonces := make([]domain.Nonce, 0, len(dtos))
	for _, dto := range dtos {
		nonces = append(nonces, dto.toDomain())
	}
	return nonces, nil
}

func (r *nonceRepository) Close() {
	closeStore(r.store)
}

func (d nonceDTO) toDomain() domain.Nonce {
	status := domain.NonceActive
	if d.Expired {
		status = domain.NonceExpired
	}
	return domain.Nonce{
		Secret:     d.Secret,
		Commitment: d.Commitment,
		CreatedAt:  d.CreatedAt,
		ExpiresAt:  d.ExpiresAt,
		Status:     status,
	}
}
