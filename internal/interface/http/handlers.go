package httpservice

import (
	"net/http"
	"strconv"

	"github.com/ark-network/ark-dice/internal/core/application"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize  = 20
	defaultListLimit = 100
)

type handler struct {
	svc application.Service
}

func (h *handler) getInfo(c *gin.Context) {
	info, err := h.svc.GetInfo(c.Request.Context())
	if err != nil {
		failWithError(c, err)
		return
	}

	ok(c, infoResponse{
		NonceHash:       info.Commitment,
		NonceExpiresAt:  info.NonceExpiresAt,
		MaxPayout:       info.MaxPayout,
		Balance:         info.Balance,
		GameAddresses:   toGameAddresses(info.GameAddresses),
		PendingPayouts:  info.PendingPayouts,
		MinConfirmation: info.MinConfirmation,
	})
}

func (h *handler) getGameAddresses(c *gin.Context) {
	ok(c, gin.H{"game_addresses": toGameAddresses(h.svc.GetGameAddresses(c.Request.Context()))})
}

func (h *handler) getCurrentNonce(c *gin.Context) {
	n, err := h.svc.GetCurrentNonce(c.Request.Context())
	if err != nil {
		failWithError(c, err)
		return
	}
	ok(c, toNonce(*n))
}

func (h *handler) listNonces(c *gin.Context) {
	limit, valid := queryInt(c, "limit", defaultListLimit)
	if !valid {
		return
	}

	nonces, err := h.svc.ListNonces(c.Request.Context(), limit)
	if err != nil {
		failWithError(c, err)
		return
	}

	list := make([]nonce, 0, len(nonces))
	for _, n := range nonces {
		list = append(list, toNonce(n))
	}
	ok(c, gin.H{"nonces": list})
}

func (h *handler) revealNonce(c *gin.Context) {
	n, err := h.svc.RevealNonce(c.Request.Context(), c.Param("hash"))
	if err != nil {
		failWithError(c, err)
		return
	}
	ok(c, toNonce(*n))
}

func (h *handler) listGames(c *gin.Context) {
	page, valid := queryInt(c, "page", 1)
	if !valid {
		return
	}
	size, valid := queryInt(c, "size", defaultPageSize)
	if !valid {
		return
	}

	games, total, err := h.svc.ListGameResults(c.Request.Context(), page, size)
	if err != nil {
		failWithError(c, err)
		return
	}
	ok(c, gamesResponse{
		Games: toGameResults(games),
		Page:  page,
		Size:  size,
		Total: total,
	})
}

func (h *handler) getGame(c *gin.Context) {
	game, err := h.svc.GetGameResult(c.Request.Context(), c.Param("txid"))
	if err != nil {
		failWithError(c, err)
		return
	}
	ok(c, toGameResult(*game))
}

func (h *handler) listDonations(c *gin.Context) {
	limit, valid := queryInt(c, "limit", defaultListLimit)
	if !valid {
		return
	}

	donations, err := h.svc.ListDonations(c.Request.Context(), limit)
	if err != nil {
		failWithError(c, err)
		return
	}

	list := make([]donation, 0, len(donations))
	for _, d := range donations {
		list = append(list, toDonation(d))
	}
	ok(c, gin.H{"donations": list})
}

func (h *handler) verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Verify(application.VerifyRequest{
		Nonce:        req.Nonce,
		Txid:         req.Txid,
		Multiplier:   req.Multiplier,
		RolledNumber: req.ResultNumber,
		IsWinner:     req.IsWin,
	})
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ok(c, verifyResponse{
		NonceHash:    res.Commitment,
		ResultNumber: res.RolledNumber,
		TargetNumber: res.TargetNumber,
		IsWin:        res.IsWinner,
		Valid:        res.Valid,
	})
}

func (h *handler) rotateNonce(c *gin.Context) {
	expired, err := h.svc.RotateNonce(c.Request.Context())
	if err != nil {
		failWithError(c, err)
		return
	}
	ok(c, gin.H{"revealed": toNonce(*expired)})
}

func (h *handler) retryPayouts(c *gin.Context) {
	report, err := h.svc.RetryPayouts(c.Request.Context())
	if err != nil {
		failWithError(c, err)
		return
	}
	ok(c, toPayoutReport(report))
}

func (h *handler) pendingPayouts(c *gin.Context) {
	pending, err := h.svc.PendingPayouts(c.Request.Context())
	if err != nil {
		failWithError(c, err)
		return
	}
	ok(c, gin.H{"pending": toGameResults(pending)})
}

func (h *handler) consolidate(c *gin.Context) {
	txid, err := h.svc.Consolidate(c.Request.Context())
	if err != nil {
		failWithError(c, err)
		return
	}
	ok(c, gin.H{"txid": txid})
}

func (h *handler) recoverPayments(c *gin.Context) {
	report, err := h.svc.RecoverMissedPayments(c.Request.Context())
	if err != nil {
		failWithError(c, err)
		return
	}
	ok(c, recoveryReport{
		Scanned:   report.Scanned,
		Processed: report.Processed,
		Failed:    report.Failed,
	})
}

func (h *handler) listUnresolved(c *gin.Context) {
	payments, err := h.svc.ListUnresolvedPayments(c.Request.Context())
	if err != nil {
		failWithError(c, err)
		return
	}

	list := make([]unresolvedPayment, 0, len(payments))
	for _, p := range payments {
		list = append(list, unresolvedPayment{
			Txid:      p.Txid,
			Address:   p.Address,
			Amount:    p.Amount,
			Sender:    p.Sender,
			Reason:    p.Reason,
			Timestamp: p.Timestamp,
		})
	}
	ok(c, gin.H{"unresolved": list})
}

// queryInt aborts the request with 400 if the param is set but not a positive integer.
func queryInt(c *gin.Context, key string, defaultValue int) (int, bool) {
	raw, found := c.GetQuery(key)
	if !found {
		return defaultValue, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		fail(c, http.StatusBadRequest, "invalid "+key)
		return 0, false
	}
	return n, true
}
