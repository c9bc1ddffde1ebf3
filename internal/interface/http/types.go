package httpservice

import (
	"github.com/ark-network/ark-dice/internal/core/application"
	"github.com/ark-network/ark-dice/internal/core/domain"
)

type infoResponse struct {
	NonceHash       string        `json:"nonce_hash"`
	NonceExpiresAt  int64         `json:"nonce_expires_at"`
	MaxPayout       uint64        `json:"max_payout"`
	Balance         uint64        `json:"balance"`
	GameAddresses   []gameAddress `json:"game_addresses"`
	PendingPayouts  int           `json:"pending_payouts"`
	MinConfirmation string        `json:"min_confirmation"`
}

type gameAddress struct {
	Address        string  `json:"address"`
	Multiplier     uint64  `json:"multiplier"`
	TargetNumber   uint16  `json:"target_number"`
	WinProbability float64 `json:"win_probability"`
	MaxBetAmount   uint64  `json:"max_bet_amount"`
}

type nonce struct {
	NonceHash string `json:"nonce_hash"`
	Nonce     string `json:"nonce,omitempty"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
	Status    string `json:"status"`
}

type gameResult struct {
	Id             string `json:"id"`
	AmountSent     uint64 `json:"amount_sent"`
	Multiplier     uint64 `json:"multiplier"`
	ResultNumber   uint16 `json:"result_number"`
	TargetNumber   uint16 `json:"target_number"`
	IsWin          bool   `json:"is_win"`
	Payout         uint64 `json:"payout,omitempty"`
	InputTxid      string `json:"input_tx_id"`
	OutputTxid     string `json:"output_tx_id,omitempty"`
	NonceHash      string `json:"nonce_hash"`
	Nonce          string `json:"nonce,omitempty"`
	PaymentSettled bool   `json:"payment_settled"`
	Timestamp      int64  `json:"timestamp"`
}

type donation struct {
	Id        string `json:"id"`
	Amount    uint64 `json:"amount"`
	Sender    string `json:"sender"`
	InputTxid string `json:"input_tx_id"`
	Timestamp int64  `json:"timestamp"`
}

type unresolvedPayment struct {
	Txid      string `json:"txid"`
	Address   string `json:"address"`
	Amount    uint64 `json:"amount"`
	Sender    string `json:"sender,omitempty"`
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}

type gamesResponse struct {
	Games []gameResult `json:"games"`
	Page  int          `json:"page"`
	Size  int          `json:"size"`
	Total int          `json:"total"`
}

type verifyRequest struct {
	Nonce        string  `json:"nonce" binding:"required"`
	Txid         string  `json:"txid" binding:"required"`
	Multiplier   uint64  `json:"multiplier" binding:"required"`
	ResultNumber *uint16 `json:"result_number"`
	IsWin        *bool   `json:"is_win"`
}

type verifyResponse struct {
	NonceHash    string `json:"nonce_hash"`
	ResultNumber uint16 `json:"result_number"`
	TargetNumber uint16 `json:"target_number"`
	IsWin        bool   `json:"is_win"`
	Valid        bool   `json:"valid"`
}

type payoutFailure struct {
	GameResultId string `json:"game_result_id"`
	Attempts     int    `json:"attempts"`
	Reason       string `json:"reason"`
}

type payoutReport struct {
	Paid    []gameResult    `json:"paid"`
	Failed  []payoutFailure `json:"failed"`
	Skipped int             `json:"skipped"`
}

type recoveryReport struct {
	Scanned   int `json:"scanned"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// feedMessage is the envelope of every websocket message.
type feedMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func toGameAddresses(addresses []domain.GameAddress) []gameAddress {
	list := make([]gameAddress, 0, len(addresses))
	for _, a := range addresses {
		list = append(list, gameAddress{
			Address:        a.Address,
			Multiplier:     uint64(a.Multiplier),
			TargetNumber:   a.Target,
			WinProbability: a.WinProbability,
			MaxBetAmount:   a.MaxBetAmount,
		})
	}
	return list
}

func toNonce(n domain.Nonce) nonce {
	status := "active"
	if n.Status == domain.NonceExpired {
		status = "expired"
	}
	return nonce{
		NonceHash: n.Commitment,
		Nonce:     n.Secret,
		CreatedAt: n.CreatedAt,
		ExpiresAt: n.ExpiresAt,
		Status:    status,
	}
}

// toGameResult relies on the secret being blanked for nonces still in use.
func toGameResult(r domain.GameResult) gameResult {
	res := gameResult{
		Id:             r.Id,
		AmountSent:     r.BetAmount,
		Multiplier:     uint64(r.Multiplier),
		ResultNumber:   r.RolledNumber,
		TargetNumber:   r.TargetNumber,
		IsWin:          r.IsWinner,
		InputTxid:      r.InputTxid,
		OutputTxid:     r.OutputTxid,
		NonceHash:      r.NonceCommitment,
		Nonce:          r.Nonce,
		PaymentSettled: r.PaymentSettled,
		Timestamp:      r.Timestamp,
	}
	if r.IsWinner {
		res.Payout = r.WinningAmount
	}
	return res
}

func toGameResults(results []domain.GameResult) []gameResult {
	list := make([]gameResult, 0, len(results))
	for _, r := range results {
		list = append(list, toGameResult(r))
	}
	return list
}

func toDonation(d domain.Donation) donation {
	return donation{
		Id:        d.Id,
		Amount:    d.Amount,
		Sender:    d.Sender,
		InputTxid: d.InputTxid,
		Timestamp: d.Timestamp,
	}
}

func toPayoutReport(r *application.PayoutReport) payoutReport {
	failed := make([]payoutFailure, 0, len(r.Failed))
	for _, f := range r.Failed {
		failed = append(failed, payoutFailure{
			GameResultId: f.GameResultId,
			Attempts:     f.Attempts,
			Reason:       f.Reason,
		})
	}
	return payoutReport{
		Paid:    toGameResults(r.Paid),
		Failed:  failed,
		Skipped: r.Skipped,
	}
}

// toFeedMessage returns false for events that are not forwarded to clients.
func toFeedMessage(event application.FeedEvent) (feedMessage, bool) {
	switch {
	case event.GameResult != nil:
		result := *event.GameResult
		if !event.NonceRevealed {
			result.Nonce = ""
		}
		return feedMessage{Type: domain.TopicGameResult, Data: toGameResult(result)}, true
	case event.Donation != nil:
		return feedMessage{Type: domain.TopicDonation, Data: toDonation(*event.Donation)}, true
	default:
		return feedMessage{}, false
	}
}
