package watch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is an optional Prometheus instrumentation surface for a monitor.
// It is constructed against an explicit prometheus.Registerer (rather than
// registering against the global default registry) so that multiple
// monitors, or repeated test runs, can coexist without colliding on metric
// names.
type Metrics struct {
	cyclesTotal      prometheus.Counter
	eventsTotal      *prometheus.CounterVec
	descriptorsGauge prometheus.Gauge
}

// NewMetrics constructs a Metrics instance and registers its collectors with
// registerer under the given subsystem name (so that a caller running both a
// poll and a kqueue monitor can label them distinctly).
func NewMetrics(registerer prometheus.Registerer, subsystem string) *Metrics {
	m := &Metrics{
		cyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fswatch",
			Subsystem: subsystem,
			Name:      "cycles_total",
			Help:      "Total number of monitor cycles run.",
		}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fswatch",
			Subsystem: subsystem,
			Name:      "events_total",
			Help:      "Total number of events emitted, labeled by flag name.",
		}, []string{"flag"}),
		descriptorsGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fswatch",
			Subsystem: subsystem,
			Name:      "open_descriptors",
			Help:      "Number of descriptors currently held open by a kernel-queue monitor.",
		}),
	}

	registerer.MustRegister(m.cyclesTotal, m.eventsTotal, m.descriptorsGauge)

	return m
}

// observeCycle records that one monitor cycle completed.
func (m *Metrics) observeCycle() {
	if m == nil {
		return
	}
	m.cyclesTotal.Inc()
}

// observeBatch records the flags carried by every event in a delivered
// batch.
func (m *Metrics) observeBatch(batch []Event) {
	if m == nil {
		return
	}
	for _, event := range batch {
		for _, entry := range flagNames {
			if event.Flags.Has(entry.flag) {
				m.eventsTotal.WithLabelValues(entry.name).Inc()
			}
		}
	}
}

// setOpenDescriptors records the current number of open kernel-queue
// descriptors.
func (m *Metrics) setOpenDescriptors(n int) {
	if m == nil {
		return
	}
	m.descriptorsGauge.Set(float64(n))
}
