package ports

import "context"

type LiveStore interface {
	PayoutBackoffs() PayoutBackoffStore
	Close()
}

// PayoutBackoff tracks the failed attempts of a payout so that instances sharing the
// store agree on when to try again.
type PayoutBackoff struct {
	Attempts      int   `json:"attempts"`
	NextAttemptAt int64 `json:"nextAttemptAt"`
	Escalated     bool  `json:"escalated"`
}

type PayoutBackoffStore interface {
	Get(ctx context.Context, id string) (*PayoutBackoff, error)
	Set(ctx context.Context, id string, backoff PayoutBackoff) error
	Delete(ctx context.Context, id string) error
}
