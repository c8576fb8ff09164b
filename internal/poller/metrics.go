// internal/poller/metrics.go
package poller

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts poller activity. A nil *Metrics records nothing.
type Metrics struct {
	cycles        *prometheus.CounterVec
	rangeReads    *prometheus.CounterVec
	writes        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	connected     prometheus.Gauge
}

// NewMetrics creates the poller metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clivet_poll_cycles_total",
			Help: "Refresh cycles by result (ok, offline, communication).",
		}, []string{"result"}),
		rangeReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clivet_range_reads_total",
			Help: "Range reads by result (ok, exception, fault).",
		}, []string{"result"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clivet_register_writes_total",
			Help: "Register writes by result (ok, skipped, error).",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "clivet_poll_cycle_duration_seconds",
			Help:    "Duration of one refresh cycle.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clivet_connected",
			Help: "1 while the Modbus link is up.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.cycles, m.rangeReads, m.writes, m.cycleDuration, m.connected)
	}
	return m
}

func (m *Metrics) cycle(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(result).Inc()
	m.cycleDuration.Observe(d.Seconds())
}

func (m *Metrics) rangeRead(result string) {
	if m == nil {
		return
	}
	m.rangeReads.WithLabelValues(result).Inc()
}

func (m *Metrics) write(result string) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(result).Inc()
}

func (m *Metrics) setConnected(up bool) {
	if m == nil {
		return
	}
	if up {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}

// resultLabel maps a cycle error onto the cycles label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrOffline):
		return "offline"
	default:
		return "communication"
	}
}
