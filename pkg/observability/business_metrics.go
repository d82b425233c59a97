package observability

import (
	"math"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Relay outcomes, one per terminal state of an invocation
const (
	OutcomeForwarded        = "forwarded"         // gateway answered (any status)
	OutcomeTransportError   = "transport_error"   // gateway not reached or reply unreadable
	OutcomeValidationError  = "validation_error"  // rejected before contacting the gateway
	OutcomeConfigError      = "configuration_error"
	OutcomeMethodNotAllowed = "method_not_allowed"
	OutcomePreflight        = "preflight"
	OutcomeInternalError    = "internal_error"
)

var (
	relayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_requests_total",
		Help: "Total number of relay invocations by outcome",
	}, []string{
		"outcome",
	})

	relayGatewayResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_gateway_responses_total",
		Help: "Gateway responses by HTTP status class (2xx, 4xx, 5xx, local)",
	}, []string{
		"status_class",
	})

	relayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "relay_request_duration_seconds",
		Help: "Time to process a relay invocation (end-to-end)",
		// Buckets: 10ms to 30s (validation failures are fast, gateway calls are not)
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{
		"outcome",
	})

	relayAmountCents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_amount_cents_total",
		Help: "Total amount forwarded to the gateway in minor units, by currency and result",
	}, []string{
		"currency",
		"ok",
	})
)

// RecordRelayRequest records one relay invocation
func RecordRelayRequest(outcome string, duration float64) {
	relayRequestsTotal.WithLabelValues(outcome).Inc()
	relayRequestDuration.WithLabelValues(outcome).Observe(duration)
}

// RecordGatewayResponse records the status class of a gateway reply.
// Local transport failures are counted as "local" so they never mix with real 5xx replies.
func RecordGatewayResponse(status int, transportFailure bool) {
	relayGatewayResponsesTotal.WithLabelValues(StatusClass(status, transportFailure)).Inc()
}

// RecordForwardedAmount records the amount sent to the gateway.
// Negative and non-finite values are dropped; Counter.Add panics on them.
func RecordForwardedAmount(currency string, ok bool, amountCents float64) {
	if amountCents < 0 || math.IsNaN(amountCents) || math.IsInf(amountCents, 0) {
		return
	}
	relayAmountCents.WithLabelValues(currency, strconv.FormatBool(ok)).Add(amountCents)
}

// StatusClass buckets an HTTP status as "2xx".."5xx"
func StatusClass(status int, transportFailure bool) string {
	if transportFailure {
		return "local"
	}
	if status < 100 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}
