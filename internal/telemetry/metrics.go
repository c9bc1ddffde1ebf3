package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type SettlementMetrics struct {
	paymentsObserved *prometheus.CounterVec
	gamesSettled     *prometheus.CounterVec
	amountWagered    prometheus.Counter
	amountPaid       prometheus.Counter
	payoutFailures   prometheus.Counter
	payoutsPending   prometheus.Gauge
	queueDepth       prometheus.Gauge
	nonceRotations   prometheus.Counter
	subscribers      prometheus.Gauge
}

var (
	settlementOnce     sync.Once
	settlementRegistry *SettlementMetrics
)

func Settlement() *SettlementMetrics {
	settlementOnce.Do(func() {
		settlementRegistry = &SettlementMetrics{
			paymentsObserved: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "arkdice_payments_observed_total",
				Help: "Incoming payments handled, by classification.",
			}, []string{"kind"}),
			gamesSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "arkdice_games_settled_total",
				Help: "Game results recorded, by multiplier and outcome.",
			}, []string{"multiplier", "outcome"}),
			amountWagered: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "arkdice_amount_wagered_sats_total",
				Help: "Sum of bet amounts of recorded games.",
			}),
			amountPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "arkdice_amount_paid_sats_total",
				Help: "Sum of payouts sent to winners.",
			}),
			payoutFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "arkdice_payout_failures_total",
				Help: "Failed payout attempts.",
			}),
			payoutsPending: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "arkdice_payouts_pending",
				Help: "Winners waiting to be paid at the last payout run.",
			}),
			queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "arkdice_payment_queue_depth",
				Help: "Payments waiting to be settled.",
			}),
			nonceRotations: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "arkdice_nonce_rotations_total",
				Help: "Nonce rotations performed by this instance.",
			}),
			subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "arkdice_event_subscribers",
				Help: "Live event feed subscribers.",
			}),
		}
		prometheus.MustRegister(
			settlementRegistry.paymentsObserved,
			settlementRegistry.gamesSettled,
			settlementRegistry.amountWagered,
			settlementRegistry.amountPaid,
			settlementRegistry.payoutFailures,
			settlementRegistry.payoutsPending,
			settlementRegistry.queueDepth,
			settlementRegistry.nonceRotations,
			settlementRegistry.subscribers,
		)
	})
	return settlementRegistry
}

func (m *SettlementMetrics) ObservePayment(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.paymentsObserved.WithLabelValues(kind).Inc()
}

func (m *SettlementMetrics) ObserveGame(multiplier string, isWinner bool, betAmount uint64) {
	if m == nil {
		return
	}
	outcome := "loss"
	if isWinner {
		outcome = "win"
	}
	m.gamesSettled.WithLabelValues(multiplier, outcome).Inc()
	m.amountWagered.Add(float64(betAmount))
}

func (m *SettlementMetrics) ObservePayout(amount uint64) {
	if m == nil {
		return
	}
	m.amountPaid.Add(float64(amount))
}

func (m *SettlementMetrics) ObservePayoutFailure() {
	if m == nil {
		return
	}
	m.payoutFailures.Inc()
}

func (m *SettlementMetrics) SetPayoutsPending(count int) {
	if m == nil {
		return
	}
	m.payoutsPending.Set(float64(count))
}

func (m *SettlementMetrics) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

func (m *SettlementMetrics) ObserveNonceRotation() {
	if m == nil {
		return
	}
	m.nonceRotations.Inc()
}

func (m *SettlementMetrics) SetSubscribers(count int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(count))
}
