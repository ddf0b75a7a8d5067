package nav

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the navigation service.
type Metrics struct {
	Rebuilds        prometheus.Counter
	RebuildFailures prometheus.Counter
	Routes          *prometheus.CounterVec
	SearchDuration  prometheus.Histogram
	PlanDuration    prometheus.Histogram
}

// NewMetrics creates and registers the navigation metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wayfind_graph_rebuilds_total",
			Help: "Completed in-memory graph rebuilds.",
		}),
		RebuildFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wayfind_graph_rebuild_failures_total",
			Help: "Graph rebuilds that failed reading the store.",
		}),
		Routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfind_route_requests_total",
			Help: "Route requests by outcome.",
		}, []string{"outcome"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wayfind_search_duration_seconds",
			Help:    "Node search latency.",
			Buckets: prometheus.DefBuckets,
		}),
		PlanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wayfind_plan_duration_seconds",
			Help:    "A* planning latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Rebuilds, m.RebuildFailures, m.Routes, m.SearchDuration, m.PlanDuration)
	}
	return m
}

func (m *Metrics) routeOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Routes.WithLabelValues(outcome).Inc()
}
