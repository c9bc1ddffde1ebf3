package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/internal/core/ports"
	"github.com/ark-network/ark-dice/internal/telemetry"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// payoutDispatcher pays the winners recorded in the ledger. Several instances can run
// against the same ledger, a winner is paid only by the one holding its claim.
type payoutDispatcher struct {
	wallet      ports.WalletService
	repoManager ports.RepoManager
	backoffs    ports.PayoutBackoffStore
	propagate   func(ctx context.Context, events ...domain.Event)
	now         func() time.Time

	claimant    string
	maxAttempts int
	backoffBase time.Duration
	backoffMax  time.Duration
	claimTTL    time.Duration

	// serializes runs of this instance, ie. a scheduled run and an operator triggered one.
	lock sync.Mutex
}

func newPayoutDispatcher(
	wallet ports.WalletService, repoManager ports.RepoManager,
	backoffs ports.PayoutBackoffStore, cfg Config,
	propagate func(ctx context.Context, events ...domain.Event),
) *payoutDispatcher {
	maxAttempts := cfg.PayoutMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &payoutDispatcher{
		wallet:      wallet,
		repoManager: repoManager,
		backoffs:    backoffs,
		propagate:   propagate,
		now:         time.Now,
		claimant:    uuid.New().String(),
		maxAttempts: maxAttempts,
		backoffBase: cfg.PayoutBackoffBase,
		backoffMax:  cfg.PayoutBackoffMax,
		claimTTL:    cfg.PayoutClaimTTL,
	}
}

func (d *payoutDispatcher) run(ctx context.Context) (*PayoutReport, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	winners, err := d.pending(ctx)
	if err != nil {
		return nil, err
	}
	telemetry.Settlement().SetPayoutsPending(len(winners))

	report := &PayoutReport{
		Paid:   make([]domain.GameResult, 0),
		Failed: make([]PayoutFailure, 0),
	}
	for _, winner := range winners {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		paid, failure, err := d.pay(ctx, winner)
		if err != nil {
			log.WithError(err).Warnf("failed to pay game %s", winner.Id)
			report.Failed = append(report.Failed, PayoutFailure{
				GameResultId: winner.Id,
				Attempts:     winner.PayoutAttempts,
				Reason:       err.Error(),
			})
			continue
		}
		switch {
		case paid != nil:
			report.Paid = append(report.Paid, *paid)
		case failure != nil:
			report.Failed = append(report.Failed, *failure)
		default:
			report.Skipped++
		}
	}

	if len(report.Paid) > 0 || len(report.Failed) > 0 {
		log.Infof(
			"payout run done: %d paid, %d failed, %d skipped",
			len(report.Paid), len(report.Failed), report.Skipped,
		)
	}
	return report, nil
}

func (d *payoutDispatcher) pending(ctx context.Context) ([]domain.GameResult, error) {
	winners, err := d.repoManager.GameResults().GetUnpaidWinners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get unpaid winners: %w", err)
	}
	owed := make([]domain.GameResult, 0, len(winners))
	for _, w := range winners {
		if w.OwesPayout() {
			owed = append(owed, w)
		}
	}
	return owed, nil
}

// pay attempts a single payout. It returns the paid result, or the failure of the attempt,
// or neither if the winner was skipped because of backoff or someone else's claim.
func (d *payoutDispatcher) pay(
	ctx context.Context, winner domain.GameResult,
) (*domain.GameResult, *PayoutFailure, error) {
	now := d.now()

	state, err := d.backoffs.Get(ctx, winner.Id)
	if err != nil {
		log.WithError(err).Warnf("failed to get payout backoff of game %s", winner.Id)
		state = nil
	}
	if state != nil && now.Unix() < state.NextAttemptAt {
		return nil, nil, nil
	}

	claimed, err := d.repoManager.GameResults().ClaimPayout(
		ctx, winner.Id, d.claimant, now.Unix(), now.Add(-d.claimTTL).Unix(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to claim payout: %w", err)
	}
	if !claimed {
		log.Debugf("payout of game %s claimed by another dispatcher", winner.Id)
		return nil, nil, nil
	}

	txid, err := d.wallet.Send(ctx, winner.PlayerAddress, winner.WinningAmount, winner.PayoutReference())
	if err != nil {
		failure := d.fail(ctx, winner, state, err)
		return nil, failure, nil
	}

	if err := d.repoManager.GameResults().CompletePayout(ctx, winner.Id, txid, d.now().Unix()); err != nil {
		// The claim is left to go stale. The next attempt reuses the payout reference so the
		// wallet does not pay twice.
		return nil, nil, fmt.Errorf("payout %s sent but not recorded: %w", txid, err)
	}
	if err := d.backoffs.Delete(ctx, winner.Id); err != nil {
		log.WithError(err).Warnf("failed to clear payout backoff of game %s", winner.Id)
	}

	winner.OutputTxid = txid
	winner.PaymentSettled = true

	telemetry.Settlement().ObservePayout(winner.WinningAmount)
	log.WithFields(log.Fields{
		"game":   winner.Id,
		"txid":   txid,
		"amount": winner.WinningAmount,
		"player": winner.PlayerAddress,
	}).Info("winner paid")

	d.propagate(ctx, domain.PayoutSettled{Result: winner})
	return &winner, nil, nil
}

func (d *payoutDispatcher) fail(
	ctx context.Context, winner domain.GameResult, state *ports.PayoutBackoff, sendErr error,
) *PayoutFailure {
	telemetry.Settlement().ObservePayoutFailure()

	attempts, err := d.repoManager.GameResults().ReleasePayout(ctx, winner.Id, sendErr.Error())
	if err != nil {
		log.WithError(err).Warnf("failed to release payout claim of game %s", winner.Id)
		attempts = winner.PayoutAttempts + 1
	}

	next := ports.PayoutBackoff{
		Attempts:      attempts,
		NextAttemptAt: d.now().Add(payoutDelay(attempts, d.backoffBase, d.backoffMax)).Unix(),
	}
	if state != nil {
		next.Escalated = state.Escalated
	}

	log.WithError(sendErr).Warnf("payout of game %s failed (attempt %d)", winner.Id, attempts)

	if attempts >= d.maxAttempts && !next.Escalated {
		next.Escalated = true
		winner.PayoutAttempts = attempts
		winner.LastPayoutError = sendErr.Error()
		d.propagate(ctx, domain.PayoutEscalated{
			Result:   winner,
			Attempts: attempts,
			Reason:   sendErr.Error(),
		})
	}

	if err := d.backoffs.Set(ctx, winner.Id, next); err != nil {
		log.WithError(err).Warnf("failed to store payout backoff of game %s", winner.Id)
	}

	return &PayoutFailure{
		GameResultId: winner.Id,
		Attempts:     attempts,
		Reason:       sendErr.Error(),
	}
}

func (d *payoutDispatcher) consolidate(ctx context.Context) (string, error) {
	txid, err := d.wallet.Consolidate(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to consolidate: %w", err)
	}

	if err := d.repoManager.OwnTxs().AddOwnTransaction(ctx, domain.OwnTransaction{
		Txid:      txid,
		Type:      domain.OwnTxConsolidation,
		CreatedAt: d.now().Unix(),
	}); err != nil {
		return "", fmt.Errorf("consolidation %s broadcast but not recorded: %w", txid, err)
	}

	log.Infof("consolidated funds in tx %s", txid)
	return txid, nil
}
