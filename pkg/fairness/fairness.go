// Package fairness implements the public verification contract of the game.
//
// Given the revealed nonce, the transaction id of the bet and the multiplier of the
// address the bet was sent to, anyone can reproduce the outcome of a game:
//
//	digest = SHA-256(nonce ++ txid)
//	rolled = big_endian_u16(digest[0], digest[1])
//	target = min(floor(65536 * 1000 / multiplier), 65535)
//	win    = rolled < target
package fairness

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

const (
	// MaxRoll is the highest number that can be rolled.
	MaxRoll = 65535
	// MultiplierScale is the scale of multiplier values, ie. 200 means 2.00x.
	MultiplierScale = 100

	rollSpace   = 65536
	targetScale = 1000
)

// Outcome is the result of evaluating a bet.
type Outcome struct {
	RolledNumber uint16
	TargetNumber uint16
	IsWinner     bool
}

// Compute returns the outcome of a bet identified by txid, scored against nonce, for the
// given multiplier. Same inputs always give the same outcome.
func Compute(nonce, txid string, multiplier uint64) Outcome {
	rolled := Roll(nonce, txid)
	target := Target(multiplier)
	return Outcome{
		RolledNumber: rolled,
		TargetNumber: target,
		IsWinner:     rolled < target,
	}
}

// Roll hashes the concatenation of nonce and txid and returns the first two bytes of the
// digest as a big endian number.
func Roll(nonce, txid string) uint16 {
	digest := sha256.Sum256([]byte(nonce + txid))
	return binary.BigEndian.Uint16(digest[:2])
}

// Target returns the win threshold for the given multiplier, clamped to [0, MaxRoll].
func Target(multiplier uint64) uint16 {
	if multiplier == 0 {
		return MaxRoll
	}
	target := rollSpace * targetScale / multiplier
	if target > MaxRoll {
		return MaxRoll
	}
	return uint16(target)
}

// WinProbability is the chance, in [0, 1], that a roll is below the target of multiplier.
func WinProbability(multiplier uint64) float64 {
	return float64(Target(multiplier)) / rollSpace
}

// Payout returns the amount owed for a winning bet. The multiplier already includes the
// house edge.
func Payout(bet, multiplier uint64) uint64 {
	return bet * multiplier / MultiplierScale
}

// MaxBet returns the biggest bet whose payout does not exceed maxPayout.
func MaxBet(maxPayout, multiplier uint64) uint64 {
	if multiplier == 0 {
		return 0
	}
	return maxPayout * MultiplierScale / multiplier
}

// Commitment returns the hex encoded SHA-256 of the secret, published before the secret
// is used.
func Commitment(secret string) string {
	digest := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(digest[:])
}

// VerifyCommitment checks that secret is the preimage of commitment.
func VerifyCommitment(secret, commitment string) bool {
	return Commitment(secret) == commitment
}

// Verify recomputes the outcome of a bet and compares it with the published one.
func Verify(nonce, txid string, multiplier uint64, rolled uint16, isWinner bool) bool {
	outcome := Compute(nonce, txid, multiplier)
	return outcome.RolledNumber == rolled && outcome.IsWinner == isWinner
}
