package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/internal/infrastructure/db/sqlite/sqlc/queries"
)

type gameResultRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewGameResultRepository(config ...interface{}) (domain.GameResultRepository, error) {
	if len(config) != 1 {
		return nil, fmt.Errorf("invalid config")
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf("cannot open game result repository: invalid config")
	}

	return &gameResultRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *gameResultRepository) AddGameResult(
	ctx context.Context, result *domain.GameResult,
) (bool, error) {
	rows, err := r.querier.InsertGameResult(ctx, queries.InsertGameResultParams{
		ID:            result.Id,
		Nonce:         result.Nonce,
		NonceHash:     result.NonceCommitment,
		RolledNumber:  int64(result.RolledNumber),
		TargetNumber:  int64(result.TargetNumber),
		Multiplier:    int64(result.Multiplier),
		InputTxID:     result.InputTxid,
		BetAmount:     int64(result.BetAmount),
		WinningAmount: int64(result.WinningAmount),
		PlayerAddress: result.PlayerAddress,
		IsWinner:      result.IsWinner,
		Timestamp:     result.Timestamp,
	})
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *gameResultRepository) GetGameResult(
	ctx context.Context, id string,
) (*domain.GameResult, error) {
	row, err := r.querier.SelectGameResult(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGameResultNotFound
		}
		return nil, err
	}
	result := toGameResult(row)
	return &result, nil
}

func (r *gameResultRepository) GetGameResultByInputTxid(
	ctx context.Context, txid string,
) (*domain.GameResult, error) {
	row, err := r.querier.SelectGameResultByInputTxid(ctx, txid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGameResultNotFound
		}
		return nil, err
	}
	result := toGameResult(row)
	return &result, nil
}

func (r *gameResultRepository) ListGameResults(
	ctx context.Context, page, size int,
) ([]domain.GameResult, int, error) {
	if page < 1 {
		page = 1
	}
	total, err := r.querier.CountGameResults(ctx)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.querier.SelectGameResults(ctx, queries.SelectGameResultsParams{
		Limit:  int64(size),
		Offset: int64((page - 1) * size),
	})
	if err != nil {
		return nil, 0, err
	}
	return toGameResults(rows), int(total), nil
}

func (r *gameResultRepository) GetUnpaidWinners(ctx context.Context) ([]domain.GameResult, error) {
	rows, err := r.querier.SelectUnpaidWinners(ctx)
	if err != nil {
		return nil, err
	}
	return toGameResults(rows), nil
}

func (r *gameResultRepository) ClaimPayout(
	ctx context.Context, id, claimant string, now, staleBefore int64,
) (bool, error) {
	rows, err := r.querier.ClaimPayout(ctx, queries.ClaimPayoutParams{
		Claimant:    nullString(claimant),
		Now:         sql.NullInt64{Int64: now, Valid: true},
		ID:          id,
		StaleBefore: sql.NullInt64{Int64: staleBefore, Valid: true},
	})
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *gameResultRepository) CompletePayout(
	ctx context.Context, id, outputTxid string, now int64,
) error {
	txBody := func(querierWithTx *queries.Queries) error {
		rows, err := querierWithTx.MarkPayoutSettled(ctx, queries.MarkPayoutSettledParams{
			OutputTxID: nullString(outputTxid),
			ID:         id,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrPayoutNotClaimed
		}
		return querierWithTx.InsertOwnTransaction(ctx, queries.InsertOwnTransactionParams{
			TxID:            outputTxid,
			TransactionType: string(domain.OwnTxPayout),
			GameResultID:    nullString(id),
			CreatedAt:       now,
		})
	}

	return execTx(ctx, r.db, txBody)
}

func (r *gameResultRepository) ReleasePayout(
	ctx context.Context, id, reason string,
) (int, error) {
	attempts, err := r.querier.ReleasePayout(ctx, queries.ReleasePayoutParams{
		LastPayoutError: nullString(reason),
		ID:              id,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrGameResultNotFound
		}
		return 0, err
	}
	return int(attempts), nil
}

func (r *gameResultRepository) Close() {
	_ = r.db.Close()
}

func toGameResult(row queries.GameResult) domain.GameResult {
	return domain.GameResult{
		Id:              row.ID,
		Nonce:           row.Nonce,
		NonceCommitment: row.NonceHash,
		RolledNumber:    uint16(row.RolledNumber),
		TargetNumber:    uint16(row.TargetNumber),
		Multiplier:      domain.Multiplier(row.Multiplier),
		InputTxid:       row.InputTxID,
		OutputTxid:      row.OutputTxID.String,
		BetAmount:       uint64(row.BetAmount),
		WinningAmount:   uint64(row.WinningAmount),
		PlayerAddress:   row.PlayerAddress,
		IsWinner:        row.IsWinner,
		PaymentSettled:  row.PaymentSuccessful,
		PayoutAttempts:  int(row.PayoutAttempts),
		LastPayoutError: row.LastPayoutError.String,
		Timestamp:       row.Timestamp,
	}
}

func toGameResults(rows []queries.GameResult) []domain.GameResult {
	results := make([]domain.GameResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, toGameResult(row))
	}
	return results
}
