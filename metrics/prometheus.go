package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Prometheus struct {
	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	lookups       *prometheus.CounterVec
	compose       *prometheus.CounterVec
	cacheEntries  prometheus.Gauge
}

// NewPrometheus registers the toolrouter series with registerer, or with
// the default registerer when nil.
func NewPrometheus(registerer prometheus.Registerer) *Prometheus {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Prometheus{
		queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolrouter_queries_total",
				Help: "Total number of queries by chosen strategy",
			},
			[]string{"strategy"},
		),
		queryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolrouter_query_duration_seconds",
				Help:    "End-to-end query handling time in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"strategy"},
		),
		lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolrouter_lookups_total",
				Help: "External lookups by kind and outcome (hit, ok, error)",
			},
			[]string{"kind", "outcome"},
		),
		compose: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolrouter_compose_total",
				Help: "Composed answers by result (generated or fallback kind)",
			},
			[]string{"result"},
		),
		cacheEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "toolrouter_lookup_cache_entries",
				Help: "Current number of cached lookup results",
			},
		),
	}
}

func (p *Prometheus) ObserveQuery(strategy string, duration time.Duration) {
	p.queries.WithLabelValues(strategy).Inc()
	p.queryDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

func (p *Prometheus) ObserveLookup(kind, outcome string) {
	p.lookups.WithLabelValues(kind, outcome).Inc()
}

func (p *Prometheus) ObserveCompose(result string) {
	p.compose.WithLabelValues(result).Inc()
}

func (p *Prometheus) SetCacheEntries(n int) {
	p.cacheEntries.Set(float64(n))
}

var _ Metrics = (*Prometheus)(nil)
