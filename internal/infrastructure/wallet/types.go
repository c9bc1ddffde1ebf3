package walletclient

import (
	"fmt"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

type gameAddress struct {
	Multiplier uint64 `json:"multiplier"`
	Address    string `json:"address"`
}

type addressesResponse struct {
	Addresses []gameAddress `json:"addresses"`
}

type payment struct {
	Address   string `json:"address"`
	Txid      string `json:"txid"`
	Amount    uint64 `json:"amount"`
	Sender    string `json:"sender"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

func (p payment) toDomain() (*domain.IncomingPayment, error) {
	if err := validateTxid(p.Txid); err != nil {
		return nil, err
	}
	if len(p.Address) <= 0 {
		return nil, fmt.Errorf("payment %s: missing address", p.Txid)
	}
	status, err := domain.ParsePaymentStatus(p.Status)
	if err != nil {
		return nil, fmt.Errorf("payment %s: %w", p.Txid, err)
	}
	return &domain.IncomingPayment{
		Address:    p.Address,
		Txid:       p.Txid,
		Amount:     p.Amount,
		Sender:     p.Sender,
		Status:     status,
		ObservedAt: p.Timestamp,
	}, nil
}

// validateTxid requires a full length hex txid, chainhash alone accepts shorter strings.
func validateTxid(txid string) error {
	if len(txid) != chainhash.MaxHashStringSize {
		return fmt.Errorf("invalid txid %s: expected %d hex chars", txid, chainhash.MaxHashStringSize)
	}
	if _, err := chainhash.NewHashFromStr(txid); err != nil {
		return fmt.Errorf("invalid txid %s: %w", txid, err)
	}
	return nil
}

type paymentsResponse struct {
	Payments []payment `json:"payments"`
}

type sendRequest struct {
	Address   string `json:"address"`
	Amount    uint64 `json:"amount"`
	Reference string `json:"reference"`
}

type txResponse struct {
	Txid string `json:"txid"`
}

type balanceResponse struct {
	Balance uint64 `json:"balance"`
}

type errorResponse struct {
	Error string `json:"error"`
}
