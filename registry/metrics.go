package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments registry loads and citation matching.
type Metrics struct {
	DocumentsLoaded prometheus.Gauge
	PatternsLoaded  prometheus.Gauge
	ReloadsTotal    prometheus.Counter
	ReloadFailures  prometheus.Counter
	MatchHits       prometheus.Counter
	MatchMisses     prometheus.Counter
}

// NewMetrics registers the registry metrics against reg. Pass a private
// registerer in tests to avoid duplicate-registration panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DocumentsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "citeroute_registry_documents_loaded",
			Help: "Number of jurisdiction documents in the published snapshot",
		}),
		PatternsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "citeroute_registry_patterns_loaded",
			Help: "Number of compiled citation patterns in the published snapshot",
		}),
		ReloadsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "citeroute_registry_reloads_total",
			Help: "Total number of successful snapshot publishes",
		}),
		ReloadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "citeroute_registry_reload_failures_total",
			Help: "Total number of loads rejected without publishing",
		}),
		MatchHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "citeroute_registry_match_hits_total",
			Help: "Citations matched to a jurisdiction pattern",
		}),
		MatchMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "citeroute_registry_match_misses_total",
			Help: "Citations that matched no known pattern",
		}),
	}
}
