package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records gateway initiation and callback activity.
type PaymentMetrics struct {
	initiations *prometheus.CounterVec
	webhooks    *prometheus.CounterVec
	gatewayCall *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	initiations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_initiations_total",
		Help: "Payment initiation attempts by result.",
	}, []string{"result"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_total",
		Help: "Gateway callback deliveries by outcome.",
	}, []string{"outcome"})
	gatewayCall := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_call_seconds",
		Help:    "Duration of outbound gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(initiations, webhooks, gatewayCall)
	return &PaymentMetrics{
		initiations: initiations,
		webhooks:    webhooks,
		gatewayCall: gatewayCall,
	}
}

// IncInitiation increments the initiation counter for the given result.
func (p *PaymentMetrics) IncInitiation(result string) {
	if p == nil || p.initiations == nil {
		return
	}
	p.initiations.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncWebhook increments the callback counter for the given outcome.
func (p *PaymentMetrics) IncWebhook(outcome string) {
	if p == nil || p.webhooks == nil {
		return
	}
	p.webhooks.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveGatewayCall records the duration of an outbound gateway call.
func (p *PaymentMetrics) ObserveGatewayCall(operation string, duration time.Duration) {
	if p == nil || p.gatewayCall == nil {
		return
	}
	p.gatewayCall.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}
