package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/internal/core/ports"
	"github.com/ark-network/ark-dice/pkg/fairness"
	log "github.com/sirupsen/logrus"
)

const (
	maxPageSize    = 100
	maxListLimit   = 1000
	publishTimeout = 10 * time.Second
)

type service struct {
	cfg Config

	// services
	wallet      ports.WalletService
	repoManager ports.RepoManager
	scheduler   ports.SchedulerService
	liveStore   ports.LiveStore
	eventBus    ports.EventBus

	registry     *addressRegistry
	nonces       *nonceManager
	orchestrator *orchestrator
	payouts      *payoutDispatcher
	broadcaster  *broadcaster
	alerts       *alerter

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lock     sync.Mutex
	stopping bool
}

func NewService(
	cfg Config,
	walletSvc ports.WalletService, repoManager ports.RepoManager,
	scheduler ports.SchedulerService, liveStore ports.LiveStore,
	eventBus ports.EventBus, notifier ports.Notifier,
) (Service, error) {
	if cfg.MaxPayout <= 0 {
		return nil, fmt.Errorf("missing max payout")
	}
	if cfg.NonceValidity <= 0 {
		return nil, fmt.Errorf("invalid nonce validity %s", cfg.NonceValidity)
	}
	if cfg.NonceCheckInterval <= 0 || cfg.PayoutInterval <= 0 {
		return nil, fmt.Errorf("nonce check and payout intervals must be positive")
	}

	registry, err := newAddressRegistry(context.Background(), walletSvc, cfg.MaxPayout)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	svc := &service{
		cfg:         cfg,
		wallet:      walletSvc,
		repoManager: repoManager,
		scheduler:   scheduler,
		liveStore:   liveStore,
		eventBus:    eventBus,
		registry:    registry,
		broadcaster: newBroadcaster(cfg.EventBufferSize),
		alerts:      newAlerter(eventBus, notifier, cfg.OperatorProfile),
		ctx:         ctx,
		cancel:      cancel,
	}
	svc.nonces = newNonceManager(repoManager.Nonces(), cfg.NonceValidity, svc.onNonceRotated)
	svc.orchestrator = newOrchestrator(
		walletSvc, repoManager, registry, svc.nonces,
		cfg.MinConfirmation, cfg.PaymentQueueSize, cfg.Workers, svc.propagate,
	)
	svc.payouts = newPayoutDispatcher(
		walletSvc, repoManager, liveStore.PayoutBackoffs(), cfg, svc.propagate,
	)
	return svc, nil
}

func (s *service) Start() error {
	log.Debug("starting nonce manager...")
	if err := s.nonces.start(s.ctx); err != nil {
		return err
	}

	s.seedFeed(s.ctx)

	log.Debug("starting operator alerts...")
	if err := s.alerts.start(); err != nil {
		return err
	}

	log.Debug("starting payment orchestrator...")
	if err := s.orchestrator.start(); err != nil {
		return err
	}

	log.Debug("starting scheduler...")
	if err := s.scheduler.ScheduleEvery(s.cfg.NonceCheckInterval, s.task("nonce rotation", func(ctx context.Context) {
		if _, err := s.nonces.rotateIfExpired(ctx); err != nil {
			log.WithError(err).Error("failed to rotate nonce")
		}
	})); err != nil {
		return err
	}
	if err := s.scheduler.ScheduleEvery(s.cfg.PayoutInterval, s.task("payouts", func(ctx context.Context) {
		if _, err := s.payouts.run(ctx); err != nil {
			log.WithError(err).Error("payout run failed")
		}
	})); err != nil {
		return err
	}
	if s.cfg.ConsolidationInterval > 0 {
		if err := s.scheduler.ScheduleEvery(s.cfg.ConsolidationInterval, s.task("consolidation", func(ctx context.Context) {
			if _, err := s.payouts.consolidate(ctx); err != nil {
				log.WithError(err).Warn("scheduled consolidation failed")
			}
		})); err != nil {
			return err
		}
	}
	s.scheduler.Start()

	if s.cfg.RecoverOnStart {
		safeGo("payment recovery", s.task("payment recovery", func(ctx context.Context) {
			if _, err := s.orchestrator.recoverMissed(ctx); err != nil {
				log.WithError(err).Error("payment recovery failed")
			}
		}))
	}
	return nil
}

func (s *service) Stop() {
	s.orchestrator.stop()
	log.Debug("stopped payment orchestrator")
	s.scheduler.Stop()
	log.Debug("stopped scheduler")
	s.stopTasks()
	s.alerts.stop()
	s.broadcaster.close()

	s.wallet.Close()
	log.Debug("closed connection to wallet")
	s.eventBus.Close()
	s.liveStore.Close()
	log.Debug("closed live store")
	s.repoManager.Close()
	log.Debug("closed connection to db")
}

func (s *service) GetInfo(ctx context.Context) (*ServiceInfo, error) {
	nonce, err := s.GetCurrentNonce(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.payouts.pending(ctx)
	if err != nil {
		return nil, err
	}
	balance, err := s.wallet.GetBalance(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to get wallet balance")
	}

	return &ServiceInfo{
		Commitment:      nonce.Commitment,
		NonceExpiresAt:  nonce.ExpiresAt,
		MaxPayout:       s.cfg.MaxPayout,
		Balance:         balance,
		GameAddresses:   s.registry.list(),
		PendingPayouts:  len(pending),
		MinConfirmation: s.cfg.MinConfirmation.String(),
	}, nil
}

func (s *service) GetGameAddresses(_ context.Context) []domain.GameAddress {
	return s.registry.list()
}

func (s *service) GetCurrentNonce(ctx context.Context) (*domain.Nonce, error) {
	snapshot, err := s.nonces.current(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Nonce{
		Commitment: snapshot.Commitment,
		CreatedAt:  snapshot.CreatedAt,
		ExpiresAt:  snapshot.ExpiresAt,
		Status:     domain.NonceActive,
	}, nil
}

func (s *service) ListNonces(ctx context.Context, limit int) ([]domain.Nonce, error) {
	return s.nonces.history(ctx, clamp(limit, maxListLimit))
}

func (s *service) RevealNonce(ctx context.Context, commitment string) (*domain.Nonce, error) {
	return s.nonces.reveal(ctx, commitment)
}

func (s *service) ListGameResults(
	ctx context.Context, page, size int,
) ([]domain.GameResult, int, error) {
	if page <= 0 {
		page = 1
	}
	results, total, err := s.repoManager.GameResults().ListGameResults(
		ctx, page, clamp(size, maxPageSize),
	)
	if err != nil {
		return nil, 0, err
	}
	s.redactNonces(ctx, results)
	return results, total, nil
}

func (s *service) GetGameResult(ctx context.Context, txid string) (*domain.GameResult, error) {
	result, err := s.repoManager.GameResults().GetGameResultByInputTxid(ctx, txid)
	if err != nil {
		return nil, err
	}
	results := []domain.GameResult{*result}
	s.redactNonces(ctx, results)
	return &results[0], nil
}

func (s *service) ListDonations(ctx context.Context, limit int) ([]domain.Donation, error) {
	return s.repoManager.Donations().ListDonations(ctx, clamp(limit, maxListLimit))
}

func (s *service) Verify(req VerifyRequest) (*VerifyResult, error) {
	if len(req.Nonce) <= 0 {
		return nil, fmt.Errorf("missing nonce")
	}
	if len(req.Txid) <= 0 {
		return nil, fmt.Errorf("missing txid")
	}
	if !domain.Multiplier(req.Multiplier).IsValid() {
		return nil, errInvalidMultiplier{req.Multiplier}
	}

	outcome := fairness.Compute(req.Nonce, req.Txid, req.Multiplier)
	valid := true
	if req.RolledNumber != nil && *req.RolledNumber != outcome.RolledNumber {
		valid = false
	}
	if req.IsWinner != nil && *req.IsWinner != outcome.IsWinner {
		valid = false
	}

	return &VerifyResult{
		Commitment:   fairness.Commitment(req.Nonce),
		RolledNumber: outcome.RolledNumber,
		TargetNumber: outcome.TargetNumber,
		IsWinner:     outcome.IsWinner,
		Valid:        valid,
	}, nil
}

func (s *service) SubscribeEvents() *Subscription {
	return s.broadcaster.subscribe()
}

func (s *service) UnsubscribeEvents(id string) {
	s.broadcaster.unsubscribe(id)
}

func (s *service) RotateNonce(ctx context.Context) (*domain.Nonce, error) {
	return s.nonces.forceRotate(ctx)
}

func (s *service) RetryPayouts(ctx context.Context) (*PayoutReport, error) {
	return s.payouts.run(ctx)
}

func (s *service) PendingPayouts(ctx context.Context) ([]domain.GameResult, error) {
	return s.payouts.pending(ctx)
}

func (s *service) Consolidate(ctx context.Context) (string, error) {
	return s.payouts.consolidate(ctx)
}

func (s *service) RecoverMissedPayments(ctx context.Context) (*RecoveryReport, error) {
	return s.orchestrator.recoverMissed(ctx)
}

func (s *service) ListUnresolvedPayments(ctx context.Context) ([]domain.UnresolvedPayment, error) {
	return s.repoManager.UnresolvedPayments().ListUnresolvedPayments(ctx)
}

// propagate delivers events to live subscribers and to the event bus. Delivery failures are
// logged, the ledger is the source of truth.
func (s *service) propagate(ctx context.Context, events ...domain.Event) {
	for _, event := range events {
		switch e := event.(type) {
		case domain.GameResultRecorded:
			result := e.Result
			s.broadcaster.publish(FeedEvent{
				Topic:         domain.TopicGameResult,
				GameResult:    &result,
				NonceRevealed: s.isRevealed(ctx, result.NonceCommitment),
			})
		case domain.PayoutSettled:
			result := e.Result
			s.broadcaster.publish(FeedEvent{
				Topic:         domain.TopicGameResult,
				GameResult:    &result,
				NonceRevealed: s.isRevealed(ctx, result.NonceCommitment),
			})
		case domain.DonationReceived:
			donation := e.Donation
			s.broadcaster.publish(FeedEvent{
				Topic:    domain.TopicDonation,
				Donation: &donation,
			})
		}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		log.WithError(err).Warn("failed to publish events")
	}
}

func (s *service) onNonceRotated(expired, next domain.Nonce) {
	s.propagate(s.ctx, domain.NonceRotated{
		Expired:    expired,
		Commitment: next.Commitment,
		ExpiresAt:  next.ExpiresAt,
	})
}

func (s *service) isRevealed(ctx context.Context, commitment string) bool {
	nonce, err := s.repoManager.Nonces().GetNonce(ctx, commitment)
	if err != nil {
		if !errors.Is(err, domain.ErrNonceNotFound) {
			log.WithError(err).Debugf("failed to get nonce %s", commitment)
		}
		return false
	}
	return nonce.IsRevealable()
}

// redactNonces blanks the secret of every result whose nonce is still in use.
func (s *service) redactNonces(ctx context.Context, results []domain.GameResult) {
	revealed := make(map[string]bool)
	for i := range results {
		commitment := results[i].NonceCommitment
		isRevealed, ok := revealed[commitment]
		if !ok {
			isRevealed = s.isRevealed(ctx, commitment)
			revealed[commitment] = isRevealed
		}
		if !isRevealed {
			results[i].Nonce = ""
		}
	}
}

// seedFeed fills the replay buffer with the latest recorded games so that subscribers
// connecting right after a restart get a snapshot.
func (s *service) seedFeed(ctx context.Context) {
	results, _, err := s.repoManager.GameResults().ListGameResults(ctx, 1, len(s.broadcaster.history))
	if err != nil {
		log.WithError(err).Warn("failed to load recent games")
		return
	}

	revealed := make(map[string]bool)
	for i := len(results) - 1; i >= 0; i-- {
		result := results[i]
		isRevealed, ok := revealed[result.NonceCommitment]
		if !ok {
			isRevealed = s.isRevealed(ctx, result.NonceCommitment)
			revealed[result.NonceCommitment] = isRevealed
		}
		s.broadcaster.publish(FeedEvent{
			Topic:         domain.TopicGameResult,
			GameResult:    &result,
			NonceRevealed: isRevealed,
		})
	}
}

// task wraps fn for the scheduler, it runs within the service lifetime and never panics.
func (s *service) task(name string, fn func(ctx context.Context)) func() {
	return func() {
		if !s.track() {
			return
		}
		defer s.wg.Done()
		defer recoverPanic(name)

		if s.ctx.Err() != nil {
			return
		}
		fn(s.ctx)
	}
}

// track registers a running task unless the service is stopping. Add and Wait
// are serialized by the lock so no task can join once stopTasks started waiting.
func (s *service) track() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.stopping {
		return false
	}
	s.wg.Add(1)
	return true
}

// stopTasks rejects new tasks, cancels the running ones and waits for them to return.
func (s *service) stopTasks() {
	s.lock.Lock()
	s.stopping = true
	s.lock.Unlock()

	s.cancel()
	s.wg.Wait()
}

func clamp(n, max int) int {
	if n <= 0 || n > max {
		return max
	}
	return n
}
