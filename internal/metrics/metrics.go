package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for reconciliation and upstream health
var (
	PaymentChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_status_checks_total",
			Help: "Total number of payment gateway status checks",
		},
		[]string{"gateway", "status"},
	)

	CarrierCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carrier_calls_total",
			Help: "Total number of logistics carrier calls",
		},
		[]string{"operation", "result"},
	)

	ReconciliationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_reconciliations_total",
			Help: "Total number of order reconciliations",
		},
		[]string{"kind", "outcome"},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "code"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Register registers all Prometheus metrics
func Register(reg prometheus.Registerer) {
	reg.MustRegister(PaymentChecksTotal)
	reg.MustRegister(CarrierCallsTotal)
	reg.MustRegister(ReconciliationsTotal)
	reg.MustRegister(HTTPRequestsTotal)
	reg.MustRegister(HTTPRequestDuration)
}
