package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/internal/core/ports"
	"github.com/ark-network/ark-dice/internal/telemetry"
	log "github.com/sirupsen/logrus"
)

const drainTimeout = 30 * time.Second

type queuedPayment struct {
	payment  domain.IncomingPayment
	snapshot domain.NonceSnapshot
}

// orchestrator turns incoming payments into game results, donations or unresolved
// payments. The nonce is bound to a payment when it is received, not when it is settled,
// so that a rotation in between never changes the outcome.
type orchestrator struct {
	wallet          ports.WalletService
	repoManager     ports.RepoManager
	registry        *addressRegistry
	nonces          *nonceManager
	minConfirmation domain.PaymentStatus
	workers         int
	propagate       func(ctx context.Context, events ...domain.Event)
	now             func() time.Time

	queue        chan queuedPayment
	stopReader   context.CancelFunc
	stopWorkers  context.CancelFunc
	readerDone   chan struct{}
	workersGroup sync.WaitGroup
}

func newOrchestrator(
	wallet ports.WalletService, repoManager ports.RepoManager,
	registry *addressRegistry, nonces *nonceManager,
	minConfirmation domain.PaymentStatus, queueSize, workers int,
	propagate func(ctx context.Context, events ...domain.Event),
) *orchestrator {
	if queueSize <= 0 {
		queueSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	return &orchestrator{
		wallet:          wallet,
		repoManager:     repoManager,
		registry:        registry,
		nonces:          nonces,
		minConfirmation: minConfirmation,
		workers:         workers,
		propagate:       propagate,
		now:             time.Now,
		queue:           make(chan queuedPayment, queueSize),
	}
}

func (o *orchestrator) start() error {
	readerCtx, stopReader := context.WithCancel(context.Background())
	workersCtx, stopWorkers := context.WithCancel(context.Background())

	payments, err := o.wallet.SubscribePayments(readerCtx)
	if err != nil {
		stopReader()
		stopWorkers()
		return fmt.Errorf("failed to subscribe to payments: %w", err)
	}

	o.stopReader = stopReader
	o.stopWorkers = stopWorkers
	o.readerDone = make(chan struct{})

	for i := 0; i < o.workers; i++ {
		o.workersGroup.Add(1)
		go o.work(workersCtx, i)
	}

	go func() {
		defer close(o.readerDone)
		defer close(o.queue)
		defer recoverPanic("payment reader")
		o.read(readerCtx, payments)
	}()
	return nil
}

// stop stops receiving payments and waits for the queued ones to be settled.
func (o *orchestrator) stop() {
	if o.stopReader == nil {
		return
	}
	o.stopReader()
	<-o.readerDone

	done := make(chan struct{})
	go func() {
		o.workersGroup.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(drainTimeout):
		log.Warnf("payment queue not drained after %s, %d payments left", drainTimeout, len(o.queue))
		o.stopWorkers()
		<-done
	}
	o.stopWorkers()
}

func (o *orchestrator) read(ctx context.Context, payments <-chan domain.IncomingPayment) {
	for {
		select {
		case <-ctx.Done():
			return
		case payment, ok := <-payments:
			if !ok {
				log.Warn("payment feed closed")
				return
			}
			if !payment.IsConfirmed(o.minConfirmation) {
				log.Debugf("payment %s is %s, waiting for %s", payment.Txid, payment.Status, o.minConfirmation)
				continue
			}

			var snapshot domain.NonceSnapshot
			if err := withRetry(ctx, "get current nonce", func() error {
				var err error
				snapshot, err = o.nonces.current(ctx)
				return err
			}); err != nil {
				return
			}

			// Blocks when the queue is full so the feed backs up instead of payments
			// being dropped.
			select {
			case o.queue <- queuedPayment{payment, snapshot}:
				telemetry.Settlement().SetQueueDepth(len(o.queue))
			case <-ctx.Done():
				return
			}
		}
	}
}

func (o *orchestrator) work(ctx context.Context, id int) {
	defer o.workersGroup.Done()

	for p := range o.queue {
		telemetry.Settlement().SetQueueDepth(len(o.queue))
		o.settle(ctx, p.payment, p.snapshot)
	}
	log.Debugf("payment worker %d stopped", id)
}

// settle handles the payment, retrying transient failures until it goes through or ctx is
// done.
func (o *orchestrator) settle(
	ctx context.Context, payment domain.IncomingPayment, snapshot domain.NonceSnapshot,
) {
	defer recoverPanic("payment settlement")

	if err := withRetry(ctx, fmt.Sprintf("settle payment %s", payment.Txid), func() error {
		return o.handlePayment(ctx, payment, snapshot)
	}); err != nil {
		log.WithError(err).Errorf("giving up on payment %s", payment.Txid)
	}
}

func (o *orchestrator) handlePayment(
	ctx context.Context, payment domain.IncomingPayment, snapshot domain.NonceSnapshot,
) error {
	_, err := o.applyPayment(ctx, payment, snapshot)
	return err
}

// applyPayment settles the payment and reports whether anything new was written to the
// ledger.
func (o *orchestrator) applyPayment(
	ctx context.Context, payment domain.IncomingPayment, snapshot domain.NonceSnapshot,
) (bool, error) {
	if !payment.IsConfirmed(o.minConfirmation) {
		return false, nil
	}

	isOwnTx, err := o.repoManager.OwnTxs().Contains(ctx, payment.Txid)
	if err != nil {
		return false, fmt.Errorf("failed to check own transactions: %w", err)
	}
	if isOwnTx {
		log.Debugf("ignoring own transaction %s", payment.Txid)
		telemetry.Settlement().ObservePayment("own")
		return false, nil
	}

	gameAddress, err := o.registry.resolve(payment.Address)
	if err != nil {
		var unknown errUnknownAddress
		if !errors.As(err, &unknown) {
			return false, err
		}
		return o.holdUnresolved(ctx, payment, domain.UnresolvedUnknownAddress)
	}

	if payment.Amount > gameAddress.MaxBetAmount {
		return o.recordDonation(ctx, payment)
	}

	if len(payment.Sender) <= 0 {
		return o.holdUnresolved(ctx, payment, domain.UnresolvedUnknownSender)
	}

	result, err := domain.NewGameResult(payment, snapshot, gameAddress.Multiplier, o.now().Unix())
	if err != nil {
		return false, fmt.Errorf("failed to score payment %s: %w", payment.Txid, err)
	}

	inserted, err := o.repoManager.GameResults().AddGameResult(ctx, result)
	if err != nil {
		return false, fmt.Errorf("failed to store game result: %w", err)
	}
	if !inserted {
		log.Debugf("payment %s already settled", payment.Txid)
		return false, nil
	}

	telemetry.Settlement().ObservePayment("bet")
	telemetry.Settlement().ObserveGame(result.Multiplier.String(), result.IsWinner, result.BetAmount)
	log.WithFields(log.Fields{
		"txid":       result.InputTxid,
		"multiplier": result.Multiplier.String(),
		"rolled":     result.RolledNumber,
		"target":     result.TargetNumber,
		"win":        result.IsWinner,
		"payout":     result.WinningAmount,
	}).Info("game settled")

	o.propagate(ctx, domain.GameResultRecorded{Result: *result})
	return true, nil
}

func (o *orchestrator) recordDonation(
	ctx context.Context, payment domain.IncomingPayment,
) (bool, error) {
	donation := domain.NewDonation(payment, o.now().Unix())
	inserted, err := o.repoManager.Donations().AddDonation(ctx, donation)
	if err != nil {
		return false, fmt.Errorf("failed to store donation: %w", err)
	}
	if !inserted {
		return false, nil
	}

	telemetry.Settlement().ObservePayment("donation")
	log.WithFields(log.Fields{
		"txid":   donation.InputTxid,
		"amount": donation.Amount,
		"sender": donation.Sender,
	}).Info("donation received")

	o.propagate(ctx, domain.DonationReceived{Donation: *donation})
	return true, nil
}

func (o *orchestrator) holdUnresolved(
	ctx context.Context, payment domain.IncomingPayment, reason string,
) (bool, error) {
	unresolved := domain.NewUnresolvedPayment(payment, reason, o.now().Unix())
	inserted, err := o.repoManager.UnresolvedPayments().AddUnresolvedPayment(ctx, unresolved)
	if err != nil {
		return false, fmt.Errorf("failed to store unresolved payment: %w", err)
	}
	if !inserted {
		return false, nil
	}

	telemetry.Settlement().ObservePayment("unresolved")
	log.Warnf("holding unresolved payment %s", unresolved)

	o.propagate(ctx, domain.PaymentUnresolved{Payment: unresolved})
	return true, nil
}

// recoverMissed replays the wallet's payment history through the settlement path. Payments
// already in the ledger are skipped, the others are scored against the current nonce. Only
// payments that add a ledger entry count as processed.
func (o *orchestrator) recoverMissed(ctx context.Context) (*RecoveryReport, error) {
	payments, err := o.wallet.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet payments: %w", err)
	}

	report := &RecoveryReport{Scanned: len(payments)}
	for _, payment := range payments {
		if !payment.IsConfirmed(o.minConfirmation) {
			continue
		}

		_, err := o.repoManager.GameResults().GetGameResultByInputTxid(ctx, payment.Txid)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrGameResultNotFound) {
			return report, err
		}

		snapshot, err := o.nonces.current(ctx)
		if err != nil {
			return report, fmt.Errorf("failed to get current nonce: %w", err)
		}
		recorded, err := o.applyPayment(ctx, payment, snapshot)
		if err != nil {
			log.WithError(err).Warnf("failed to recover payment %s", payment.Txid)
			report.Failed++
			continue
		}
		if recorded {
			report.Processed++
		}
	}

	log.Infof(
		"payment recovery done: %d scanned, %d processed, %d failed",
		report.Scanned, report.Processed, report.Failed,
	)
	return report, nil
}
