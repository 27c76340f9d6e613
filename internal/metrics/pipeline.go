package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agbru/spectator/internal/fdprobe"
)

// PipelineStats are the counters PipelineCollector exports. The caller maps
// its own stats into this shape.
type PipelineStats struct {
	Prologues        uint64
	Epilogues        uint64
	CaptureFailures  uint64
	MissedCycles     uint64
	Spilled          uint64
	Delivered        uint64
	Discarded        uint64
	ConsumerFailures uint64
	Queued           int
}

// PipelineCollector exports pipeline counters and descriptor pressure. Values
// are read at scrape time.
type PipelineCollector struct {
	stats func() PipelineStats
	fds   func() fdprobe.Pressure

	prologues   *prometheus.Desc
	epilogues   *prometheus.Desc
	failures    *prometheus.Desc
	missed      *prometheus.Desc
	spilled     *prometheus.Desc
	delivered   *prometheus.Desc
	discarded   *prometheus.Desc
	consumerErr *prometheus.Desc
	queued      *prometheus.Desc
	fdUsed      *prometheus.Desc
	fdMax       *prometheus.Desc
}

var _ prometheus.Collector = (*PipelineCollector)(nil)

// NewPipelineCollector returns a collector reading stats and fds on every
// scrape. Either function may be nil.
func NewPipelineCollector(stats func() PipelineStats, fds func() fdprobe.Pressure) *PipelineCollector {
	desc := func(sub, name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(Namespace, sub, name), help, nil, nil)
	}
	return &PipelineCollector{
		stats:       stats,
		fds:         fds,
		prologues:   desc("observer", "prologues_total", "GC prologues captured."),
		epilogues:   desc("observer", "epilogues_total", "GC events built."),
		failures:    desc("observer", "capture_failures_total", "Snapshots with a failed heap-space read."),
		missed:      desc("host", "missed_cycles_total", "GC cycles the host folded into another report."),
		spilled:     desc("delivery", "spilled_total", "GC events queued past the ring capacity."),
		delivered:   desc("delivery", "delivered_total", "GC events handed to the consumer."),
		discarded:   desc("delivery", "discarded_total", "GC events discarded at delivery time."),
		consumerErr: desc("delivery", "consumer_failures_total", "Consumer calls that failed or panicked."),
		queued:      desc("delivery", "queued", "GC events awaiting delivery."),
		fdUsed:      desc("fd", "used", "Open file descriptors."),
		fdMax:       desc("fd", "max", "Soft file descriptor limit; absent when unlimited."),
	}
}

// Describe implements prometheus.Collector.
func (c *PipelineCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.prologues, c.epilogues, c.failures, c.missed, c.spilled,
		c.delivered, c.discarded, c.consumerErr, c.queued,
		c.fdUsed, c.fdMax,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *PipelineCollector) Collect(ch chan<- prometheus.Metric) {
	if c.stats != nil {
		s := c.stats()
		counter := func(d *prometheus.Desc, v uint64) {
			ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
		}
		counter(c.prologues, s.Prologues)
		counter(c.epilogues, s.Epilogues)
		counter(c.failures, s.CaptureFailures)
		counter(c.missed, s.MissedCycles)
		counter(c.spilled, s.Spilled)
		counter(c.delivered, s.Delivered)
		counter(c.discarded, s.Discarded)
		counter(c.consumerErr, s.ConsumerFailures)
		ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(s.Queued))
	}
	if c.fds != nil {
		p := c.fds()
		ch <- prometheus.MustNewConstMetric(c.fdUsed, prometheus.GaugeValue, float64(p.Used))
		if p.Max != nil {
			ch <- prometheus.MustNewConstMetric(c.fdMax, prometheus.GaugeValue, float64(*p.Max))
		}
	}
}
