package domain

const (
	TopicGameResult = "game_result"
	TopicDonation   = "donation"
	TopicUnresolved = "unresolved_payment"
	TopicEscalation = "payout_escalation"
	TopicNonce      = "nonce_rotated"
)

// Event is something that happened to the ledger that other parts of the system, or the
// outside world, may want to react to.
type Event interface {
	Topic() string
}

func (e GameResultRecorded) Topic() string { return TopicGameResult }
func (e PayoutSettled) Topic() string      { return TopicGameResult }
func (e DonationReceived) Topic() string   { return TopicDonation }
func (e PaymentUnresolved) Topic() string  { return TopicUnresolved }
func (e PayoutEscalated) Topic() string    { return TopicEscalation }
func (e NonceRotated) Topic() string       { return TopicNonce }

type GameResultRecorded struct {
	Result GameResult
}

type PayoutSettled struct {
	Result GameResult
}

type DonationReceived struct {
	Donation Donation
}

type PaymentUnresolved struct {
	Payment UnresolvedPayment
}

type PayoutEscalated struct {
	Result   GameResult
	Attempts int
	Reason   string
}

type NonceRotated struct {
	Expired    Nonce
	Commitment string
	ExpiresAt  int64
}
