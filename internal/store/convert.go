package store

import (
	"cmp"
	"database/sql"

	"github.com/coral-mesh/ncurep/internal/report"
	"github.com/coral-mesh/ncurep/internal/report/transform"
	"github.com/coral-mesh/ncurep/internal/safe"
)

type reportRows struct {
	report  *ReportRow
	kernels []*KernelRow
	metrics []*MetricRow
	hints   []*HintRow
}

// buildRows flattens r into table rows keyed by hash. Import fills in the
// path and import metadata.
func buildRows(hash string, r *report.Report) *reportRows {
	rows := &reportRows{
		report: &ReportRow{
			ReportHash:        hash,
			FileVersion:       safe.Int64(r.FileVersion),
			DeviceName:        r.Session.DeviceName,
			ComputeCapability: r.Session.ComputeCapability,
			KernelCount:       int64(len(r.Kernels)),
			Truncated:         r.Stats.Truncated,
		},
	}

	for i := range r.Kernels {
		k := &r.Kernels[i]
		summary := report.Summarize(i, k)

		rows.kernels = append(rows.kernels, &KernelRow{
			ReportHash:   hash,
			KernelIndex:  int64(i),
			Name:         k.Name,
			ShortName:    summary.ShortName,
			Kind:         string(summary.Kind),
			FunctionName: k.FunctionName,
			Grid:         k.Grid,
			Block:        k.Block,
			CC:           k.CC,
			ContextID:    safe.Int64(k.ContextID),
			StreamID:     safe.Int64(k.StreamID),
			Duration:     summary.Duration,
		})

		seen := make(map[metricKey]bool)
		for _, sec := range k.Sections {
			rows.metrics = append(rows.metrics, metricRows(hash, int64(i), sec, seen)...)
			for _, h := range sec.Hints {
				rows.hints = append(rows.hints, &HintRow{
					ReportHash:  hash,
					KernelIndex: int64(i),
					Section:     sectionKey(sec),
					Seq:         int64(len(rows.hints)),
					HintType:    string(h.Type),
					Text:        h.Text,
				})
			}
		}
	}

	return rows
}

type metricKey struct{ section, rawName string }

// sectionKey names a section in the metric and hint tables.
func sectionKey(sec transform.Section) string {
	return cmp.Or(sec.Identifier, sec.Name)
}

// metricRows keeps the first metric per section and raw name. A section
// header may list a metric twice, and one batch may not upsert a key twice.
func metricRows(hash string, index int64, sec transform.Section, seen map[metricKey]bool) []*MetricRow {
	out := make([]*MetricRow, 0, len(sec.Metrics))

	for seq, m := range sec.Metrics {
		key := metricKey{sectionKey(sec), m.RawName}
		if seen[key] {
			continue
		}
		seen[key] = true

		row := &MetricRow{
			ReportHash:   hash,
			KernelIndex:  index,
			Section:      key.section,
			RawName:      m.RawName,
			SectionOrder: sec.Order,
			Seq:          int64(seq),
			Label:        m.Label,
			Unit:         m.Unit,
			Value:        m.Value,
			RawText:      m.Raw.String(),
		}
		if m.Raw.IsNumeric() {
			row.RawValue = sql.NullFloat64{Float64: m.Raw.Float64(), Valid: true}
		}
		out = append(out, row)
	}
	return out
}
