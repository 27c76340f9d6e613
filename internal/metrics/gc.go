package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agbru/spectator/internal/gcevent"
)

// Namespace prefixes every exported metric.
const Namespace = "spectator"

// GCMetrics is a GC consumer that records each event into Prometheus metrics.
type GCMetrics struct {
	events      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	reclaimed   prometheus.Counter
	heapUsed    prometheus.Gauge
	heapTotal   prometheus.Gauge
	heapLimit   prometheus.Gauge
	spaceUsed   *prometheus.GaugeVec
	spaceSize   *prometheus.GaugeVec
	lastElapsed prometheus.Gauge
}

// NewGCMetrics registers the GC metrics on reg.
func NewGCMetrics(reg prometheus.Registerer) *GCMetrics {
	f := promauto.With(reg)
	return &GCMetrics{
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "gc",
			Name:      "events_total",
			Help:      "Garbage collections delivered to the consumer, by type.",
		}, []string{"type"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "gc",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of garbage collections, by type.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"type"}),
		reclaimed: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "gc",
			Name:      "reclaimed_bytes_total",
			Help:      "Used heap bytes released by garbage collections.",
		}),
		heapUsed: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "heap",
			Name:      "used_bytes",
			Help:      "Used heap size after the last collection.",
		}),
		heapTotal: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "heap",
			Name:      "total_bytes",
			Help:      "Total heap size after the last collection.",
		}),
		heapLimit: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "heap",
			Name:      "limit_bytes",
			Help:      "Heap size limit reported by the host.",
		}),
		spaceUsed: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "heap_space",
			Name:      "used_bytes",
			Help:      "Used size of each heap space after the last collection.",
		}, []string{"space"}),
		spaceSize: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "heap_space",
			Name:      "size_bytes",
			Help:      "Size of each heap space after the last collection.",
		}, []string{"space"}),
		lastElapsed: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "gc",
			Name:      "last_duration_seconds",
			Help:      "Duration of the most recent collection.",
		}),
	}
}

// Consume implements delivery.Consumer.
func (m *GCMetrics) Consume(_ context.Context, rec gcevent.Record) error {
	m.Observe(rec)
	return nil
}

// Observe records rec.
func (m *GCMetrics) Observe(rec gcevent.Record) {
	m.events.WithLabelValues(rec.Type).Inc()
	m.duration.WithLabelValues(rec.Type).Observe(rec.Elapsed)
	m.lastElapsed.Set(rec.Elapsed)

	if rec.Before.UsedHeapSize > rec.After.UsedHeapSize {
		m.reclaimed.Add(float64(rec.Before.UsedHeapSize - rec.After.UsedHeapSize))
	}
	m.heapUsed.Set(float64(rec.After.UsedHeapSize))
	m.heapTotal.Set(float64(rec.After.TotalHeapSize))
	m.heapLimit.Set(float64(rec.After.HeapSizeLimit))
	for _, sp := range rec.After.HeapSpaceStats {
		m.spaceUsed.WithLabelValues(sp.SpaceName).Set(float64(sp.SpaceUsedSize))
		m.spaceSize.WithLabelValues(sp.SpaceName).Set(float64(sp.SpaceSize))
	}
}
