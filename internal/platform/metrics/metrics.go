package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors the service exports.
type Metrics struct {
	RequestLatency *prometheus.HistogramVec

	SessionsCreated       prometheus.Counter
	ApplicationsSubmitted prometheus.Counter
	ApplicationsApproved  prometheus.Counter
	ApplicationsRejected  prometheus.Counter
	DigitalIDsIssued      prometheus.Counter
	CardsRendered         prometheus.Counter
	CardAssetFallbacks    *prometheus.CounterVec
}

// New registers all collectors against the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kabaleid",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kabaleid",
			Name:      "sessions_created_total",
			Help:      "Sessions issued at login and registration.",
		}),
		ApplicationsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kabaleid",
			Name:      "applications_submitted_total",
			Help:      "ID applications moved from draft to submitted.",
		}),
		ApplicationsApproved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kabaleid",
			Name:      "applications_approved_total",
			Help:      "ID applications approved by a kabale admin.",
		}),
		ApplicationsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kabaleid",
			Name:      "applications_rejected_total",
			Help:      "ID applications rejected by a kabale admin.",
		}),
		DigitalIDsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kabaleid",
			Name:      "digital_ids_issued_total",
			Help:      "Digital IDs created by approval transactions.",
		}),
		CardsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kabaleid",
			Name:      "cards_rendered_total",
			Help:      "Printable ID cards rendered to PDF.",
		}),
		CardAssetFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kabaleid",
			Name:      "card_asset_fallbacks_total",
			Help:      "Card assets replaced by placeholders after fetch failure.",
		}, []string{"asset"}),
	}

	reg.MustRegister(
		m.RequestLatency,
		m.SessionsCreated,
		m.ApplicationsSubmitted,
		m.ApplicationsApproved,
		m.ApplicationsRejected,
		m.DigitalIDsIssued,
		m.CardsRendered,
		m.CardAssetFallbacks,
	)
	return m
}

// NewForTest returns metrics on a private registry so tests don't collide on
// the global default.
func NewForTest() *Metrics {
	return New(prometheus.NewRegistry())
}
