// Package metrics exports plugin printer counts as Prometheus metrics.
package metrics

import (
	"github.com/muurk/printscout/internal/plugin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "printscout"

// Metrics holds the Prometheus collectors for discovery plugins.
type Metrics struct {
	printers     *prometheus.GaugeVec
	changesTotal *prometheus.CounterVec
	registry     *prometheus.Registry
}

// New creates the plugin metrics and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		printers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plugin",
			Name:      "printers",
			Help:      "Number of printers currently matched by a plugin",
		}, []string{"plugin"}),

		changesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "plugin",
			Name:      "count_changes_total",
			Help:      "Count notifications delivered by a plugin",
		}, []string{"plugin"}),

		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(m.printers, m.changesTotal)
	return m
}

// Registry returns the Prometheus registry holding the plugin metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Sink returns a CountSink that mirrors counts of the named plugin into
// the printers gauge.
func (m *Metrics) Sink(pluginName string) plugin.CountSink {
	gauge := m.printers.WithLabelValues(pluginName)
	changes := m.changesTotal.WithLabelValues(pluginName)
	gauge.Set(0)
	return plugin.SinkFunc(func(count int) {
		gauge.Set(float64(count))
		changes.Inc()
	})
}

// SinkFor adapts Sink to a registry sink factory.
func (m *Metrics) SinkFor(p *plugin.Plugin) plugin.CountSink {
	return m.Sink(p.Name())
}
