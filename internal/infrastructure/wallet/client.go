package walletclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/internal/core/ports"
	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	requestTimeout   = 30 * time.Second
	paymentsChanSize = 64
	maxReconnectWait = time.Minute
)

// walletClient talks to the wallet daemon that owns the game keys over its JSON API and
// receives incoming payments over a websocket stream.
type walletClient struct {
	baseURL *url.URL
	client  *http.Client
	dialer  *websocket.Dialer

	lock    sync.Mutex
	conns   map[*websocket.Conn]struct{}
	closed  bool
	closeCh chan struct{}
}

func NewService(walletURL string) (ports.WalletService, error) {
	if len(walletURL) <= 0 {
		return nil, fmt.Errorf("missing wallet url")
	}
	baseURL, err := url.Parse(strings.TrimSuffix(walletURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid wallet url: %w", err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid wallet url scheme %s", baseURL.Scheme)
	}

	return &walletClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
		dialer:  websocket.DefaultDialer,
		conns:   make(map[*websocket.Conn]struct{}),
		closeCh: make(chan struct{}),
	}, nil
}

func (w *walletClient) GetGameAddresses(ctx context.Context) (map[domain.Multiplier]string, error) {
	var resp addressesResponse
	if err := w.do(ctx, http.MethodGet, "/v1/addresses", nil, &resp); err != nil {
		return nil, err
	}

	addresses := make(map[domain.Multiplier]string, len(resp.Addresses))
	for _, a := range resp.Addresses {
		if a.Multiplier == 0 || len(a.Address) <= 0 {
			return nil, fmt.Errorf("wallet returned invalid game address %+v", a)
		}
		addresses[domain.Multiplier(a.Multiplier)] = a.Address
	}
	return addresses, nil
}

func (w *walletClient) ListPayments(ctx context.Context) ([]domain.IncomingPayment, error) {
	var resp paymentsResponse
	if err := w.do(ctx, http.MethodGet, "/v1/payments", nil, &resp); err != nil {
		return nil, err
	}

	payments := make([]domain.IncomingPayment, 0, len(resp.Payments))
	for _, p := range resp.Payments {
		payment, err := p.toDomain()
		if err != nil {
			log.WithError(err).Warn("skipping invalid payment from wallet")
			continue
		}
		payments = append(payments, *payment)
	}
	return payments, nil
}

func (w *walletClient) SubscribePayments(ctx context.Context) (<-chan domain.IncomingPayment, error) {
	ch := make(chan domain.IncomingPayment, paymentsChanSize)

	go func() {
		defer close(ch)

		bo := backoff.NewExponentialBackOff()
		bo.MaxInterval = maxReconnectWait
		bo.MaxElapsedTime = 0

		for {
			err := w.streamPayments(ctx, ch)
			if ctx.Err() != nil || w.isClosed() {
				return
			}

			wait := bo.NextBackOff()
			log.WithError(err).Warnf("payment stream interrupted, reconnecting in %s", wait)
			select {
			case <-ctx.Done():
				return
			case <-w.closeCh:
				return
			case <-time.After(wait):
			}
		}
	}()

	return ch, nil
}

func (w *walletClient) Send(
	ctx context.Context, address string, amount uint64, reference string,
) (string, error) {
	req := sendRequest{
		Address:   address,
		Amount:    amount,
		Reference: reference,
	}
	var resp txResponse
	if err := w.do(ctx, http.MethodPost, "/v1/send", req, &resp); err != nil {
		return "", err
	}
	if err := validateTxid(resp.Txid); err != nil {
		return "", fmt.Errorf("wallet returned %w", err)
	}
	return resp.Txid, nil
}

func (w *walletClient) Consolidate(ctx context.Context) (string, error) {
	var resp txResponse
	if err := w.do(ctx, http.MethodPost, "/v1/consolidate", struct{}{}, &resp); err != nil {
		return "", err
	}
	if err := validateTxid(resp.Txid); err != nil {
		return "", fmt.Errorf("wallet returned %w", err)
	}
	return resp.Txid, nil
}

func (w *walletClient) GetBalance(ctx context.Context) (uint64, error) {
	var resp balanceResponse
	if err := w.do(ctx, http.MethodGet, "/v1/balance", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

func (w *walletClient) Close() {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	close(w.closeCh)
	for conn := range w.conns {
		_ = conn.Close()
	}
}

func (w *walletClient) streamPayments(ctx context.Context, ch chan<- domain.IncomingPayment) error {
	streamURL := *w.baseURL
	switch streamURL.Scheme {
	case "https":
		streamURL.Scheme = "wss"
	default:
		streamURL.Scheme = "ws"
	}
	streamURL.Path += "/v1/payments/stream"

	conn, _, err := w.dialer.DialContext(ctx, streamURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to payment stream: %w", err)
	}
	if !w.track(conn) {
		_ = conn.Close()
		return fmt.Errorf("wallet client closed")
	}
	defer w.untrack(conn)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var p payment
		if err := conn.ReadJSON(&p); err != nil {
			return err
		}
		incoming, err := p.toDomain()
		if err != nil {
			log.WithError(err).Warn("skipping invalid payment from wallet")
			continue
		}
		select {
		case ch <- *incoming:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *walletClient) track(conn *websocket.Conn) bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.closed {
		return false
	}
	w.conns[conn] = struct{}{}
	return true
}

func (w *walletClient) untrack(conn *websocket.Conn) {
	w.lock.Lock()
	defer w.lock.Unlock()
	delete(w.conns, conn)
	_ = conn.Close()
}

func (w *walletClient) isClosed() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.closed
}

func (w *walletClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, w.baseURL.String()+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("wallet request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if len(e.Error) <= 0 {
			e.Error = resp.Status
		}
		return fmt.Errorf("wallet request %s %s failed: %s", method, path, e.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode wallet response: %w", err)
	}
	return nil
}
