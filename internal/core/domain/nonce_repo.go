package domain

import "context"

type NonceRepository interface {
	// GetCurrent returns the active nonce and the version of the pointer record.
	GetCurrent(ctx context.Context) (*Nonce, int64, error)
	// Rotate expires the current nonce, stores next as the active one and bumps the
	// pointer version, only if the pointer is still at version.
	Rotate(ctx context.Context, version int64, next *Nonce) (int64, error)
	GetNonce(ctx context.Context, commitment string) (*Nonce, error)
	ListNonces(ctx context.Context, limit int) ([]Nonce, error)
	Close()
}
