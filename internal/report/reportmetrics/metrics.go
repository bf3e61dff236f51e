// Package reportmetrics exports report decoding statistics as Prometheus
// metrics.
package reportmetrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/coral-mesh/ncurep/internal/report/container"
)

const namespace = "ncurep"

// Metrics counts what the container walker saw across decoded reports.
type Metrics struct {
	reports      prometheus.Counter
	failures     prometheus.Counter
	blocks       prometheus.Counter
	kernels      prometheus.Counter
	skipped      *prometheus.CounterVec
	realignments prometheus.Counter
	truncated    prometheus.Counter
	reportBytes  prometheus.Histogram
}

// New creates the decode metrics and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		reports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Reports decoded successfully.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Reports rejected with a fatal decode error.",
		}),
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_total",
			Help:      "Container blocks read.",
		}),
		kernels: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kernels_total",
			Help:      "Profile results decoded.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_entries_total",
			Help:      "Uninterpreted block entries skipped, by kind.",
		}, []string{"kind"}),
		realignments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payload_realignments_total",
			Help:      "Blocks whose cursor was moved forward to the declared payload end.",
		}),
		truncated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "truncated_reports_total",
			Help:      "Reports that ended inside a block.",
		}),
		reportBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_bytes",
			Help:      "Size of decoded report buffers.",
			Buckets:   prometheus.ExponentialBuckets(4096, 4, 12),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.reports, m.failures, m.blocks, m.kernels, m.skipped,
		m.realignments, m.truncated, m.reportBytes,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register decode metrics: %w", err)
		}
	}
	return m, nil
}

// Observe records the statistics of one successful walk.
func (m *Metrics) Observe(s container.Stats) {
	m.reports.Inc()
	m.blocks.Add(float64(s.Blocks))
	m.kernels.Add(float64(s.Results))
	m.skipped.WithLabelValues("source").Add(float64(s.SkippedSources))
	m.skipped.WithLabelValues("range").Add(float64(s.SkippedRanges))
	m.realignments.Add(float64(s.Realignments))
	if s.Truncated {
		m.truncated.Inc()
	}
	m.reportBytes.Observe(float64(s.Bytes))
}

// ObserveFailure records a report rejected with a fatal error.
func (m *Metrics) ObserveFailure() {
	m.failures.Inc()
}

// WriteText writes every metric gathered from g in the Prometheus text
// exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to encode metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
