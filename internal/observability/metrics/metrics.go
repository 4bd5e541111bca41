package metrics

import "github.com/prometheus/client_golang/prometheus"

// IngestionMetrics exposes counters/histograms for webhook and booking intake.
type IngestionMetrics struct {
	webhooksTotal  *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
	slotCacheTotal *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
}

// NewIngestionMetrics registers the collectors on reg, or on the default
// registerer when reg is nil.
func NewIngestionMetrics(reg prometheus.Registerer) *IngestionMetrics {
	m := &IngestionMetrics{
		webhooksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prism",
			Subsystem: "ingestion",
			Name:      "webhooks_total",
			Help:      "Total inbound lead webhooks by outcome",
		}, []string{"source", "status"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prism",
			Subsystem: "ingestion",
			Name:      "bookings_total",
			Help:      "Total tour booking submissions by merge outcome",
		}, []string{"outcome"}),
		slotCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prism",
			Subsystem: "ingestion",
			Name:      "slot_cache_lookups_total",
			Help:      "Taken-slot cache lookups by result",
		}, []string{"result"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "prism",
			Subsystem: "ingestion",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of webhook normalization and persistence",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.webhooksTotal, m.bookingsTotal, m.slotCacheTotal, m.webhookLatency)
	return m
}

func (m *IngestionMetrics) ObserveWebhook(source, status string) {
	if m == nil {
		return
	}
	m.webhooksTotal.WithLabelValues(source, status).Inc()
}

func (m *IngestionMetrics) ObserveWebhookLatency(source string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(source).Observe(seconds)
}

// ObserveBooking records merged, created or failed.
func (m *IngestionMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *IngestionMetrics) ObserveSlotCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.slotCacheTotal.WithLabelValues(result).Inc()
}
