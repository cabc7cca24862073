package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the grant lifecycle.
type Metrics struct {
	GrantsRecorded    prometheus.Counter
	RolesApplied      *prometheus.CounterVec
	RevocationsTotal  *prometheus.CounterVec
	SweepCyclesTotal  prometheus.Counter
	StoreDegradations prometheus.Counter
	PendingGrants     prometheus.Gauge
}

// New creates and registers all grant metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		GrantsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rolekeeper_grants_recorded_total",
			Help: "Total number of temporary grants recorded in the ledger",
		}),
		RolesApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rolekeeper_roles_applied_total",
			Help: "Total remote role additions, by outcome",
		}, []string{"outcome"}),
		RevocationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rolekeeper_revocations_total",
			Help: "Total sweep revocation attempts, by outcome",
		}, []string{"outcome"}),
		SweepCyclesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rolekeeper_sweep_cycles_total",
			Help: "Total expiry sweep cycles run",
		}),
		StoreDegradations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rolekeeper_store_degradations_total",
			Help: "Total ledger operations that fell back to the in-memory cache",
		}),
		PendingGrants: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rolekeeper_expired_pending_grants",
			Help: "Grants past expiry still awaiting revocation after the last sweep",
		}),
	}
}

func (m *Metrics) RecordGrant() {
	m.GrantsRecorded.Inc()
}

func (m *Metrics) RecordRoleApplied(outcome string) {
	m.RolesApplied.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordRevocation(outcome string) {
	m.RevocationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordDegradation() {
	m.StoreDegradations.Inc()
}
