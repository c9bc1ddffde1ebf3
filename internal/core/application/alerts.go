package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ark-network/ark-dice/internal/core/domain"
	"github.com/ark-network/ark-dice/internal/core/ports"
	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
)

const notifyTimeout = 30 * time.Second

var alertTopics = []string{
	domain.TopicUnresolved,
	domain.TopicEscalation,
	domain.TopicDonation,
}

// alerter forwards the events the operator must know about to the notifier.
type alerter struct {
	bus      ports.EventBus
	notifier ports.Notifier
	operator string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newAlerter(bus ports.EventBus, notifier ports.Notifier, operator string) *alerter {
	return &alerter{
		bus:      bus,
		notifier: notifier,
		operator: operator,
	}
}

func (a *alerter) start() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	for _, topic := range alertTopics {
		msgs, err := a.bus.Subscribe(ctx, topic)
		if err != nil {
			cancel()
			return fmt.Errorf("failed to subscribe to %s events: %w", topic, err)
		}

		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			for msg := range msgs {
				a.handle(ctx, msg)
			}
		}()
	}
	return nil
}

func (a *alerter) stop() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	a.wg.Wait()
}

func (a *alerter) handle(ctx context.Context, msg ports.EventMessage) {
	defer recoverPanic("alerter")

	message, err := formatAlert(msg)
	if err != nil {
		log.WithError(err).Warnf("failed to decode %s event", msg.Topic)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := a.notifier.Notify(ctx, a.operator, message); err != nil {
		log.WithError(err).Warn("failed to notify operator")
	}
}

func formatAlert(msg ports.EventMessage) (string, error) {
	switch msg.Topic {
	case domain.TopicUnresolved:
		var event domain.PaymentUnresolved
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return "", err
		}
		p := event.Payment
		return fmt.Sprintf(
			"Unresolved payment %s of %s to %s from %q: %s. It was not scored and needs review.",
			p.Txid, btcutil.Amount(p.Amount), p.Address, p.Sender, p.Reason,
		), nil
	case domain.TopicEscalation:
		var event domain.PayoutEscalated
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return "", err
		}
		r := event.Result
		return fmt.Sprintf(
			"Payout of %s to %s for game %s (input %s) failed %d times: %s. Still retrying.",
			btcutil.Amount(r.WinningAmount), r.PlayerAddress, r.Id, r.InputTxid,
			event.Attempts, event.Reason,
		), nil
	case domain.TopicDonation:
		var event domain.DonationReceived
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			return "", err
		}
		d := event.Donation
		return fmt.Sprintf(
			"Donation of %s received from %q in %s.",
			btcutil.Amount(d.Amount), d.Sender, d.InputTxid,
		), nil
	default:
		return "", fmt.Errorf("unexpected topic %s", msg.Topic)
	}
}
