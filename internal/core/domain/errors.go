package domain

import "errors"

var (
	ErrNoActiveNonce        = errors.New("no active nonce")
	ErrNonceNotFound        = errors.New("nonce not found")
	ErrNonceNotRevealable   = errors.New("nonce is still active")
	ErrNonceVersionConflict = errors.New("nonce pointer version changed")
	ErrGameResultNotFound   = errors.New("game result not found")
	ErrPayoutNotClaimed     = errors.New("payout is not claimed")
)
