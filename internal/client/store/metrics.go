package store

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeOK     = "ok"
	outcomeFailed = "failed"
)

type metrics struct {
	refreshTotal    *prometheus.CounterVec
	fetchFailures   *prometheus.CounterVec
	mutations       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	records         *prometheus.GaugeVec
}

// newMetrics builds the store collectors and registers them on reg.
// A nil reg leaves them unregistered; they are still safe to update.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assetflow",
			Subsystem: "store",
			Name:      "refresh_total",
			Help:      "Bulk refreshes, by outcome.",
		}, []string{"outcome"}),

		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assetflow",
			Subsystem: "store",
			Name:      "fetch_failures_total",
			Help:      "Per-collection fetches that failed during a bulk refresh and were degraded to empty.",
		}, []string{"collection"}),

		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assetflow",
			Subsystem: "store",
			Name:      "mutations_total",
			Help:      "Create, update and remove calls, by operation and outcome.",
		}, []string{"op", "outcome"}),

		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "assetflow",
			Subsystem: "store",
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of a bulk refresh.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),

		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "assetflow",
			Subsystem: "store",
			Name:      "records",
			Help:      "Records currently cached, by collection.",
		}, []string{"collection"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.refreshTotal,
			m.fetchFailures,
			m.mutations,
			m.refreshDuration,
			m.records,
		)
	}
	return m
}

func (m *metrics) mutation(op string, err error) {
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeFailed
	}
	m.mutations.WithLabelValues(op, outcome).Inc()
}
