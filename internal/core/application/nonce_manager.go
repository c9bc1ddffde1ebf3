package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/internal/telemetry"
	log "github.com/sirupsen/logrus"
)

// nonceManager owns the active nonce. The active nonce lives in the store behind a
// versioned pointer so every worker and every instance sees the same one.
type nonceManager struct {
	repo     domain.NonceRepository
	validity time.Duration
	now      func() time.Time
	onRotate func(expired, next domain.Nonce)
}

func newNonceManager(
	repo domain.NonceRepository, validity time.Duration, onRotate func(expired, next domain.Nonce),
) *nonceManager {
	return &nonceManager{
		repo:     repo,
		validity: validity,
		now:      time.Now,
		onRotate: onRotate,
	}
}

func (m *nonceManager) start(ctx context.Context) error {
	nonce, _, err := m.repo.GetCurrent(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoActiveNonce) {
			return fmt.Errorf("failed to get current nonce: %w", err)
		}
		if _, err := m.rotate(ctx, false); err != nil {
			return fmt.Errorf("failed to create first nonce: %w", err)
		}
		return nil
	}

	if nonce.IsExpired(m.now()) {
		if _, err := m.rotateIfExpired(ctx); err != nil {
			return fmt.Errorf("failed to rotate expired nonce: %w", err)
		}
	}
	return nil
}

// current returns the snapshot payments observed now must be scored against. An expired
// nonce is rotated first and, if that fails, so does current.
func (m *nonceManager) current(ctx context.Context) (domain.NonceSnapshot, error) {
	for {
		nonce, version, err := m.repo.GetCurrent(ctx)
		if err != nil {
			return domain.NonceSnapshot{}, err
		}
		if !nonce.IsExpired(m.now()) {
			return nonce.Snapshot(version), nil
		}

		if _, err := m.rotateIfExpired(ctx); err != nil {
			return domain.NonceSnapshot{}, err
		}
		if err := ctx.Err(); err != nil {
			return domain.NonceSnapshot{}, err
		}
	}
}

func (m *nonceManager) rotateIfExpired(ctx context.Context) (bool, error) {
	return m.rotate(ctx, false)
}

func (m *nonceManager) forceRotate(ctx context.Context) (*domain.Nonce, error) {
	for {
		current, _, err := m.repo.GetCurrent(ctx)
		if err != nil {
			return nil, err
		}
		rotated, err := m.rotate(ctx, true)
		if err != nil {
			return nil, err
		}
		if rotated {
			return m.repo.GetNonce(ctx, current.Commitment)
		}
	}
}

func (m *nonceManager) reveal(ctx context.Context, commitment string) (*domain.Nonce, error) {
	nonce, err := m.repo.GetNonce(ctx, commitment)
	if err != nil {
		return nil, err
	}
	if !nonce.IsRevealable() {
		return nil, domain.ErrNonceNotRevealable
	}
	return nonce, nil
}

func (m *nonceManager) history(ctx context.Context, limit int) ([]domain.Nonce, error) {
	nonces, err := m.repo.ListNonces(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range nonces {
		nonces[i] = nonces[i].Public()
	}
	return nonces, nil
}

// rotate replaces the active nonce when expired, or unconditionally when forced. Losing the
// race against another rotator is not an error, it reports rotated=false.
func (m *nonceManager) rotate(ctx context.Context, force bool) (bool, error) {
	now := m.now()

	current, version, err := m.repo.GetCurrent(ctx)
	if err != nil && !errors.Is(err, domain.ErrNoActiveNonce) {
		return false, err
	}
	if current != nil && !force && !current.IsExpired(now) {
		return false, nil
	}

	next, err := domain.NewNonce(now, m.validity)
	if err != nil {
		return false, err
	}

	if _, err := m.repo.Rotate(ctx, version, next); err != nil {
		if errors.Is(err, domain.ErrNonceVersionConflict) {
			log.Debug("nonce rotated by someone else")
			return false, nil
		}
		return false, fmt.Errorf("failed to rotate nonce: %w", err)
	}

	telemetry.Settlement().ObserveNonceRotation()
	log.WithFields(log.Fields{
		"commitment": next.Commitment,
		"expires_at": time.Unix(next.ExpiresAt, 0).Format(time.RFC3339),
	}).Info("nonce rotated")

	if current != nil && m.onRotate != nil {
		expired := *current
		expired.Status = domain.NonceExpired
		m.onRotate(expired, *next)
	}
	return true, nil
}
