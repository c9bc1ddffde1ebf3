package badgerdb

import (
	"context"
	"errors"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

type gameResultDTO struct {
	domain.GameResult
	ClaimedBy string
	ClaimedAt int64
}

// inputTxidDTO maps an input txid to its game result and enforces one result per txid.
type inputTxidDTO struct {
	InputTxid    string
	GameResultId string
}

type gameResultRepository struct {
	store *badgerhold.Store
}

func NewGameResultRepository(config ...interface{}) (domain.GameResultRepository, error) {
	store, err := storeFromConfig(config)
	if err != nil {
		return nil, err
	}
	return &gameResultRepository{store}, nil
}

func (r *gameResultRepository) AddGameResult(
	ctx context.Context, result *domain.GameResult,
) (bool, error) {
	inserted := true
	err := update(r.store, func(tx *badger.Txn) error {
		if err := r.store.TxInsert(tx, result.InputTxid, inputTxidDTO{
			InputTxid:    result.InputTxid,
			GameResultId: result.Id,
		}); err != nil {
			if errors.Is(err, badgerhold.ErrKeyExists) {
				inserted = false
				return nil
			}
			return err
		}
		return r.store.TxInsert(tx, result.Id, gameResultDTO{GameResult: *result})
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *gameResultRepository) GetGameResult(
	ctx context.Context, id string,
) (*domain.GameResult, error) {
	dto, err := r.getGameResult(nil, id)
	if err != nil {
		return nil, err
	}
	return &dto.GameResult, nil
}

func (r *gameResultRepository) GetGameResultByInputTxid(
	ctx context.Context, txid string,
) (*domain.GameResult, error) {
	var index inputTxidDTO
	if err := r.store.Get(txid, &index); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrGameResultNotFound
		}
		return nil, err
	}
	return r.GetGameResult(ctx, index.GameResultId)
}

func (r *gameResultRepository) ListGameResults(
	ctx context.Context, page, size int,
) ([]domain.GameResult, int, error) {
	if page < 1 {
		page = 1
	}
	total, err := r.store.Count(&gameResultDTO{}, &badgerhold.Query{})
	if err != nil {
		return nil, 0, err
	}

	query := (&badgerhold.Query{}).SortBy("Timestamp").Reverse().
		Skip((page - 1) * size).Limit(size)
	results, err := r.findGameResults(query)
	if err != nil {
		return nil, 0, err
	}
	return results, int(total), nil
}

func (r *gameResultRepository) GetUnpaidWinners(ctx context.Context) ([]domain.GameResult, error) {
	query := badgerhold.Where("IsWinner").Eq(true).
		And("PaymentSettled").Eq(false).
		SortBy("Timestamp")
	return r.findGameResults(query)
}

func (r *gameResultRepository) ClaimPayout(
	ctx context.Context, id, claimant string, now, staleBefore int64,
) (bool, error) {
	claimed := false
	err := update(r.store, func(tx *badger.Txn) error {
		claimed = false
		dto, err := r.getGameResult(tx, id)
		if err != nil {
			return err
		}
		if !dto.IsWinner || dto.PaymentSettled {
			return nil
		}
		if len(dto.ClaimedBy) > 0 && dto.ClaimedAt >= staleBefore {
			return nil
		}

		dto.ClaimedBy = claimant
		dto.ClaimedAt = now
		if err := r.store.TxUpdate(tx, id, *dto); err != nil {
			return err
		}
		claimed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

func (r *gameResultRepository) CompletePayout(
	ctx context.Context, id, outputTxid string, now int64,
) error {
	return update(r.store, func(tx *badger.Txn) error {
		dto, err := r.getGameResult(tx, id)
		if err != nil {
			return err
		}
		if dto.PaymentSettled || len(dto.ClaimedBy) <= 0 {
			return domain.ErrPayoutNotClaimed
		}

		dto.OutputTxid = outputTxid
		dto.PaymentSettled = true
		dto.ClaimedBy = ""
		dto.ClaimedAt = 0
		if err := r.store.TxUpdate(tx, id, *dto); err != nil {
			return err
		}

		if err := r.store.TxInsert(tx, outputTxid, domain.OwnTransaction{
			Txid:         outputTxid,
			Type:         domain.OwnTxPayout,
			GameResultId: id,
			CreatedAt:    now,
		}); err != nil && !errors.Is(err, badgerhold.ErrKeyExists) {
			return err
		}
		return nil
	})
}

func (r *gameResultRepository) ReleasePayout(
	ctx context.Context, id, reason string,
) (int, error) {
	var attempts int
	err := update(r.store, func(tx *badger.Txn) error {
		dto, err := r.getGameResult(tx, id)
		if err != nil {
			return err
		}
		dto.PayoutAttempts++
		dto.LastPayoutError = reason
		dto.ClaimedBy = ""
		dto.ClaimedAt = 0
		attempts = dto.PayoutAttempts
		return r.store.TxUpdate(tx, id, *dto)
	})
	if err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *gameResultRepository) Close() {
	closeStore(r.store)
}

func (r *gameResultRepository) getGameResult(tx *badger.Txn, id string) (*gameResultDTO, error) {
	var dto gameResultDTO
	var err error
	if tx != nil {
		err = r.store.TxGet(tx, id, &dto)
	} else {
		err = r.store.Get(id, &dto)
	}
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrGameResultNotFound
		}
		return nil, err
	}
	return &dto, nil
}

func (r *gameResultRepository) findGameResults(
	query *badgerhold.Query,
) ([]domain.GameResult, error) {
	var dtos []gameResultDTO
	if err := r.store.Find(&dtos, query); err != nil {
		return nil, err
	}
	results := make([]domain.GameResult, 0, len(dtos))
	for _, dto := range dtos {
		results = append(results, dto.GameResult)
	}
	return results, nil
}
