package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ark-network/ark-dice/pkg/fairness"
)

const nonceSize = 32

type NonceStatus int

const (
	NonceActive NonceStatus = iota
	NonceExpired
)

func (s NonceStatus) String() string {
	switch s {
	case NonceActive:
		return "active"
	case NonceExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Nonce is the server secret games are scored against. Only its commitment is public until
// it expires.
type Nonce struct {
	Secret     string
	Commitment string
	CreatedAt  int64
	ExpiresAt  int64
	Status     NonceStatus
}

// NewNonce generates a fresh active nonce valid for the given window starting from now.
func NewNonce(now time.Time, validity time.Duration) (*Nonce, error) {
	if validity <= 0 {
		return nil, fmt.Errorf("invalid nonce validity %s", validity)
	}

	buf := make([]byte, nonceSize)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	secret := hex.EncodeToString(buf)

	return &Nonce{
		Secret:     secret,
		Commitment: fairness.Commitment(secret),
		CreatedAt:  now.Unix(),
		ExpiresAt:  now.Add(validity).Unix(),
		Status:     NonceActive,
	}, nil
}

func (n Nonce) IsExpired(now time.Time) bool {
	return now.Unix() >= n.ExpiresAt
}

func (n Nonce) IsRevealable() bool {
	return n.Status == NonceExpired
}

// Public returns a copy of the nonce that is safe to disclose.
func (n Nonce) Public() Nonce {
	if !n.IsRevealable() {
		n.Secret = ""
	}
	return n
}

func (n Nonce) Snapshot(version int64) NonceSnapshot {
	return NonceSnapshot{
		Secret:     n.Secret,
		Commitment: n.Commitment,
		CreatedAt:  n.CreatedAt,
		ExpiresAt:  n.ExpiresAt,
		Version:    version,
	}
}

// NonceSnapshot is the nonce bound to a payment when it is first observed.
type NonceSnapshot struct {
	Secret     string
	Commitment string
	CreatedAt  int64
	ExpiresAt  int64
	Version    int64
}

func (s NonceSnapshot) IsZero() bool {
	return s.Secret == ""
}
