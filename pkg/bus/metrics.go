package bus

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors of a Bus.
type Metrics struct {
	published   *prometheus.CounterVec
	subscribers *prometheus.GaugeVec
}

// NewMetrics creates the bus collectors and registers them with reg.
// A nil reg leaves them unregistered, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_bus_published_total",
				Help: "Total number of values published per topic",
			},
			[]string{"topic"},
		),
		subscribers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arbor_bus_subscribers",
				Help: "Number of subscribers currently attached per topic",
			},
			[]string{"topic"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.published, m.subscribers)
	}
	return m
}

// Published returns the publish counter, labelled by topic.
func (m *Metrics) Published() *prometheus.CounterVec {
	return m.published
}

// Subscribers returns the subscriber gauge, labelled by topic.
func (m *Metrics) Subscribers() *prometheus.GaugeVec {
	return m.subscribers
}
