package application

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

const maxRetryInterval = 30 * time.Second

// withRetry runs fn with exponential backoff until it succeeds or ctx is done. Errors
// wrapped with backoff.Permanent stop the retries.
func withRetry(ctx context.Context, op string, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = maxRetryInterval
	bo.MaxElapsedTime = 0

	return backoff.RetryNotify(fn, backoff.WithContext(bo, ctx), func(err error, wait time.Duration) {
		log.WithError(err).Warnf("%s failed, retrying in %s", op, wait)
	})
}

// safeGo runs fn in a goroutine and logs instead of crashing if it panics.
func safeGo(name string, fn func()) {
	go func() {
		defer recoverPanic(name)
		fn()
	}()
}

func recoverPanic(name string) {
	if r := recover(); r != nil {
		log.Errorf("recovered from panic in %s: %v\n%s", name, r, debug.Stack())
	}
}

// payoutDelay is the wait before the next payout attempt, doubling at every failure and
// capped at max.
func payoutDelay(attempts int, base, max time.Duration) time.Duration {
	if attempts <= 0 || base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempts; i++ {
		delay *= 2
		if max > 0 && delay >= max {
			return max
		}
	}
	if max > 0 && delay > max {
		return max
	}
	return delay
}
