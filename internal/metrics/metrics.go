// Package metrics instruments the gateway and engines with prometheus
// counters and histograms, the way aistore's stats package and
// grafana-tempo instrument their storage hot paths rather than hand-rolled
// counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every instrument this module exposes. A nil *Metrics is
// never passed around; use NewNop() for a no-op instance instead.
type Metrics struct {
	appends             prometheus.Counter
	rollovers           prometheus.Counter
	blankPageRecoveries prometheus.Counter
	gatewayErrors       *prometheus.CounterVec
	gatewayCallDuration *prometheus.HistogramVec
}

// New registers and returns a Metrics bundle on reg. Passing a fresh
// registry (prometheus.NewRegistry()) is recommended for tests so repeated
// construction across test cases does not collide with the default
// registry's duplicate-registration panic.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		appends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pagelist_appends_total",
			Help: "Total number of successful AtomicAppend calls.",
		}),
		rollovers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pagelist_rollovers_total",
			Help: "Total number of page-boundary rollovers this process won.",
		}),
		blankPageRecoveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pagelist_blank_page_recoveries_total",
			Help: "Total number of times AppendToList hit ItemMissing and recovered by creating the page.",
		}),
		gatewayErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pagelist_gateway_errors_total",
			Help: "Total number of transport-level gateway errors, by operation.",
		}, []string{"op"}),
		gatewayCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pagelist_gateway_call_duration_seconds",
			Help:    "Latency of KV gateway calls, by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
	reg.MustRegister(m.appends, m.rollovers, m.blankPageRecoveries, m.gatewayErrors, m.gatewayCallDuration)
	return m
}

// NewNop returns a Metrics bundle backed by an unregistered, private
// registry: every observation is computed but never exported. Used as the
// default when a caller does not wire in their own registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Appends returns the append counter.
func (m *Metrics) Appends() prometheus.Counter { return m.appends }

// Rollovers returns the rollover counter.
func (m *Metrics) Rollovers() prometheus.Counter { return m.rollovers }

// BlankPageRecoveries returns the blank-page-recovery counter.
func (m *Metrics) BlankPageRecoveries() prometheus.Counter { return m.blankPageRecoveries }

// GatewayErrors returns the error counter for the given operation.
func (m *Metrics) GatewayErrors(op string) prometheus.Counter {
	return m.gatewayErrors.WithLabelValues(op)
}

// GatewayCallTimer starts a timer that records into the duration
// histogram for op when ObserveDuration is called on the result.
func (m *Metrics) GatewayCallTimer(op string) *prometheus.Timer {
	return prometheus.NewTimer(m.gatewayCallDuration.WithLabelValues(op))
}
