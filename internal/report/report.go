// Package report decodes NVR GPU kernel profiling reports.
//
// Parse walks the container, transforms every profiled kernel into a
// display record and derives session information from the first kernel's
// device attributes. A parse is synchronous and holds the whole report in
// memory; callers bound the buffer size before handing it over.
//
// The decoder is tolerant of exporter drift: unknown fields, unresolved
// string references and a truncated trailing block are absorbed. Only a
// missing signature or a buffer too short to carry the file header fails the
// parse, and no kernels are returned alongside an error.
package report

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/coral-mesh/ncurep/internal/report/container"
	"github.com/coral-mesh/ncurep/internal/report/message"
	"github.com/coral-mesh/ncurep/internal/report/reportmetrics"
	"github.com/coral-mesh/ncurep/internal/report/transform"
)

// Report is a decoded profiling report.
type Report struct {
	FileVersion uint64                   `json:"fileVersion"`
	Session     SessionInfo              `json:"sessionInfo"`
	Kernels     []transform.Kernel       `json:"kernels"`
	Stats       container.Stats          `json:"stats"`
	Processes   []message.SessionDetails `json:"-"`
}

type options struct {
	logger   *zerolog.Logger
	progress container.ProgressFunc
	metrics  *reportmetrics.Metrics
}

// Option configures Parse.
type Option func(*options)

// WithLogger logs container structure at debug level.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithProgress reports walk milestones to fn.
func WithProgress(fn container.ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithMetrics records decode statistics in m.
func WithMetrics(m *reportmetrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Parse decodes a complete report buffer.
func Parse(buf []byte, opts ...Option) (*Report, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	w := container.Walker{Logger: o.logger, Progress: o.progress}
	capture, err := w.Walk(buf)
	if err != nil {
		if o.metrics != nil {
			o.metrics.ObserveFailure()
		}
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	if o.metrics != nil {
		o.metrics.Observe(capture.Stats)
	}

	r := &Report{
		FileVersion: capture.Header.Version,
		Kernels:     make([]transform.Kernel, 0, len(capture.Entries)),
		Stats:       capture.Stats,
		Processes:   capture.Sessions,
	}
	for _, e := range capture.Entries {
		r.Kernels = append(r.Kernels, transform.Transform(e.Result, e.Strings))
	}
	r.Session = deriveSession(r.FileVersion, r.Kernels)

	if o.logger != nil {
		o.logger.Debug().
			Uint64("version", r.FileVersion).
			Int("kernels", len(r.Kernels)).
			Int("blocks", r.Stats.Blocks).
			Bool("truncated", r.Stats.Truncated).
			Msg("Decoded report")
	}
	return r, nil
}
