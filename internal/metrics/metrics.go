// Package metrics exposes prometheus counters for probes, transitions and
// alert channels. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamed0406/pingwatch/internal/domain"
)

const namespace = "pingwatch"

type Metrics struct {
	Registry *prometheus.Registry

	probes          *prometheus.CounterVec
	latency         prometheus.Histogram
	skipped         prometheus.Counter
	transitions     *prometheus.CounterVec
	channelFailures *prometheus.CounterVec
	targets         prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Completed probes by result.",
		}, []string{"result"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_latency_seconds",
			Help:      "Round-trip time of successful probes.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .2, .5, 1, 2},
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_skipped_total",
			Help:      "Probes not launched because a concurrency limit was reached.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "State events by kind.",
		}, []string{"kind"}),
		channelFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_channel_failures_total",
			Help:      "Failed alert side effects by channel.",
		}, []string{"channel"}),
		targets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "targets",
			Help:      "Number of monitored targets.",
		}),
	}
	reg.MustRegister(
		m.probes, m.latency, m.skipped, m.transitions, m.channelFailures, m.targets,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveProbe(r domain.ProbeResult) {
	if m == nil {
		return
	}
	result := "down"
	if r.Alive {
		result = "alive"
	}
	m.probes.WithLabelValues(result).Inc()
	if r.Latency != nil {
		m.latency.Observe(r.Latency.Seconds())
	}
}

func (m *Metrics) ProbeSkipped() {
	if m == nil {
		return
	}
	m.skipped.Inc()
}

func (m *Metrics) ObserveEvent(kind domain.EventKind) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) ChannelFailed(channel string) {
	if m == nil {
		return
	}
	m.channelFailures.WithLabelValues(channel).Inc()
}

func (m *Metrics) SetTargets(n int) {
	if m == nil {
		return
	}
	m.targets.Set(float64(n))
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
