package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// Metrics holds the Prometheus collectors for request building and export.
type Metrics struct {
	Builds         *prometheus.CounterVec // labels: outcome={ok,<validation kind>}
	Exports        *prometheus.CounterVec // labels: outcome={success,error}
	ExportDuration prometheus.Histogram
	BandsWritten   prometheus.Counter
	CircuitState   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.Builds,
		m.Exports,
		m.ExportDuration,
		m.BandsWritten,
		m.CircuitState,
	)
	return m
}

// NewMetricsForTesting creates unregistered collectors so tests can build
// as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridmet_summary",
			Name:      "builds_total",
			Help:      "Aggregation requests built, by outcome.",
		}, []string{"outcome"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridmet_summary",
			Name:      "exports_total",
			Help:      "Exports run against the imagery platform, by outcome.",
		}, []string{"outcome"}),
		ExportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gridmet_summary",
			Name:      "export_duration_seconds",
			Help:      "Duration of a full download and write cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		BandsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gridmet_summary",
			Name:      "bands_written_total",
			Help:      "Raster band files written to the sink.",
		}),
		CircuitState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gridmet_summary",
			Name:      "platform_circuit_state",
			Help:      "Earth Engine circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}),
	}
}

// ObserveCircuit matches the gobreaker OnStateChange signature.
func (m *Metrics) ObserveCircuit(_ string, _, to gobreaker.State) {
	m.CircuitState.Set(float64(to))
}
