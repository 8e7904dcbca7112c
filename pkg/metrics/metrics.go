// Package metrics exposes controller and bridge activity as Prometheus
// counters on a dedicated registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-surveysync/pkg/lifecycle"
)

// Collector implements lifecycle.Recorder.
type Collector struct {
	registry *prometheus.Registry

	loads     *prometheus.CounterVec
	mutations *prometheus.CounterVec
	emits     *prometheus.CounterVec
	inputs    *prometheus.CounterVec
	sessions  prometheus.Gauge
}

var _ lifecycle.Recorder = (*Collector)(nil)

// NewCollector creates a collector. An empty namespace defaults to
// "surveysync".
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "surveysync"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.loads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "loads_total",
			Help:      "Survey load requests by outcome (rebuilt, unchanged, invalid, failed)",
		},
		[]string{"result"},
	)
	c.mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "mutations_total",
			Help:      "Field mutations by kind and outcome",
		},
		[]string{"kind", "result"},
	)
	c.emits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "emits_total",
			Help:      "Outbound values shipped to the bridge",
		},
		[]string{"output"},
	)
	c.inputs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "inputs_total",
			Help:      "Input values received from clients",
		},
		[]string{"input"},
	)
	c.sessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "sessions",
			Help:      "Connected bridge clients",
		},
	)

	c.registry.MustRegister(c.loads, c.mutations, c.emits, c.inputs, c.sessions)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveLoad(result string) {
	c.loads.WithLabelValues(result).Inc()
}

func (c *Collector) ObserveMutation(kind, result string) {
	c.mutations.WithLabelValues(kind, result).Inc()
}

func (c *Collector) ObserveEmit(name string) {
	c.emits.WithLabelValues(name).Inc()
}

// ObserveInput counts an input value received by the host.
func (c *Collector) ObserveInput(name string) {
	c.inputs.WithLabelValues(name).Inc()
}

// SetSessions records the number of connected clients.
func (c *Collector) SetSessions(n int) {
	c.sessions.Set(float64(n))
}
