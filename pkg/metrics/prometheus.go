package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements Collector with Prometheus counters and histograms.
type Prometheus struct {
	windowsCommitted prometheus.Counter
	recordsProcessed prometheus.Counter
	splitsTotal      prometheus.Counter
	splitDepth       prometheus.Histogram
	runsAborted      *prometheus.CounterVec
}

var _ Collector = (*Prometheus)(nil)

// NewPrometheus creates a collector and registers its metrics with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		windowsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "windrow",
			Name:      "windows_committed_total",
			Help:      "Windows whose results were merged, split parts included.",
		}),
		recordsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "windrow",
			Name:      "records_processed_total",
			Help:      "Records covered by committed top-level windows.",
		}),
		splitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "windrow",
			Name:      "window_splits_total",
			Help:      "Oversized windows divided for retry.",
		}),
		splitDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "windrow",
			Name:      "window_split_depth",
			Help:      "Depth at which window splits occurred.",
			Buckets:   prometheus.LinearBuckets(0, 1, 6),
		}),
		runsAborted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "windrow",
			Name:      "runs_aborted_total",
			Help:      "Runs ended by a fatal error, by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(p.windowsCommitted, p.recordsProcessed, p.splitsTotal, p.splitDepth, p.runsAborted)
	return p
}

// WindowCommitted increments the committed-window counter.
func (p *Prometheus) WindowCommitted(int) {
	p.windowsCommitted.Inc()
}

// WindowSplit counts the split and observes its depth.
func (p *Prometheus) WindowSplit(_, depth int) {
	p.splitsTotal.Inc()
	p.splitDepth.Observe(float64(depth))
}

// RunAborted counts the fatal abort by kind.
func (p *Prometheus) RunAborted(kind string) {
	p.runsAborted.WithLabelValues(kind).Inc()
}

// RecordsProcessed adds the committed records to the counter.
func (p *Prometheus) RecordsProcessed(records int) {
	p.recordsProcessed.Add(float64(records))
}
