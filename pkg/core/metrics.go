package core

import "github.com/prometheus/client_golang/prometheus"

// Metrics records state machine activity per namespace.
type Metrics struct {
	applied  *prometheus.CounterVec
	faults   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		applied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_reducers_applied_total",
				Help: "Total number of reducers folded into state",
			},
			[]string{"namespace"},
		),
		faults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_reducer_faults_total",
				Help: "Total number of reducers that panicked",
			},
			[]string{"namespace"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "arbor_reducer_duration_seconds",
				Help: "Duration of reducer applications",
			},
			[]string{"namespace"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.applied, m.faults, m.duration)
	}
	return m
}

// Applied counts reducers folded into state, by namespace.
func (m *Metrics) Applied() *prometheus.CounterVec {
	return m.applied
}

// Faults counts reducers that panicked, by namespace.
func (m *Metrics) Faults() *prometheus.CounterVec {
	return m.faults
}

// Duration observes how long each reducer took, by namespace.
func (m *Metrics) Duration() *prometheus.HistogramVec {
	return m.duration
}
