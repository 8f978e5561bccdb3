package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus collectors for the webhook pipeline. They are usable before
// Register is called; registration only exposes them on /metrics.
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method"},
	)

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartpanda_webhook_events_total",
			Help: "Webhook events by terminal action",
		},
		[]string{"action"},
	)

	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatsapp_gateway_requests_total",
			Help: "Outbound gateway requests by outcome",
		},
		[]string{"provider", "outcome"},
	)

	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whatsapp_gateway_request_duration_seconds",
			Help:    "Duration of a single outbound gateway request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	DedupHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dedup_hits_total",
			Help: "Webhooks skipped because the order was already sent",
		},
	)

	DedupResetsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dedup_resets_total",
			Help: "Times the sent-order set was cleared after reaching its cap",
		},
	)

	PanicsRecoveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "http_panics_recovered_total",
			Help: "Handler panics answered with the webhook failure body",
		},
	)
)

// Register registers all collectors with reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		WebhookEventsTotal,
		GatewayRequestsTotal,
		GatewayRequestDuration,
		DedupHitsTotal,
		DedupResetsTotal,
		PanicsRecoveredTotal,
	)
}
