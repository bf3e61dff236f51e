package store

import (
	"database/sql"
	"time"
)

// ReportRow is one imported report.
type ReportRow struct {
	ReportHash        string    `duckdb:"report_hash,pk" json:"reportHash" header:"Report"`
	Path              string    `duckdb:"path" json:"path" header:"Path"`
	FileVersion       int64     `duckdb:"file_version" json:"fileVersion" header:"-"`
	DeviceName        string    `duckdb:"device_name" json:"deviceName" header:"Device"`
	ComputeCapability string    `duckdb:"compute_capability" json:"computeCapability" header:"CC"`
	KernelCount       int64     `duckdb:"kernel_count" json:"kernelCount" header:"Kernels"`
	Truncated         bool      `duckdb:"truncated" json:"truncated" header:"Truncated"`
	ImportID          string    `duckdb:"import_id" json:"importId" header:"-"`
	ImportedAt        time.Time `duckdb:"imported_at,immutable" json:"importedAt" header:"Imported"`
}

// KernelRow is one kernel launch of an imported report.
type KernelRow struct {
	ReportHash   string `duckdb:"report_hash,pk" json:"reportHash" header:"Report"`
	KernelIndex  int64  `duckdb:"kernel_index,pk" json:"kernelIndex" header:"#"`
	Name         string `duckdb:"name" json:"name" header:"-"`
	ShortName    string `duckdb:"short_name" json:"shortName" header:"Kernel"`
	Kind         string `duckdb:"kind" json:"kind" header:"Kind"`
	FunctionName string `duckdb:"function_name" json:"functionName" header:"-"`
	Grid         string `duckdb:"grid" json:"grid" header:"Grid"`
	Block        string `duckdb:"block" json:"block" header:"Block"`
	CC           string `duckdb:"cc" json:"cc" header:"CC"`
	ContextID    int64  `duckdb:"context_id" json:"contextId" header:"-"`
	StreamID     int64  `duckdb:"stream_id" json:"streamId" header:"-"`
	Duration     string `duckdb:"duration" json:"duration" header:"Duration"`
}

// MetricRow is one display metric of a stored kernel.
type MetricRow struct {
	ReportHash   string          `duckdb:"report_hash,pk" json:"reportHash" header:"-"`
	KernelIndex  int64           `duckdb:"kernel_index,pk" json:"kernelIndex" header:"-"`
	Section      string          `duckdb:"section,pk" json:"section" header:"Section"`
	RawName      string          `duckdb:"raw_name,pk" json:"rawName" header:"-"`
	SectionOrder int64           `duckdb:"section_order" json:"-" header:"-"`
	Seq          int64           `duckdb:"seq" json:"-" header:"-"`
	Label        string          `duckdb:"label" json:"label" header:"Metric"`
	Unit         string          `duckdb:"unit" json:"unit" header:"Unit"`
	Value        string          `duckdb:"value" json:"value" header:"Value"`
	RawValue     sql.NullFloat64 `duckdb:"raw_value" json:"-" header:"-"`
	RawText      string          `duckdb:"raw_text" json:"rawValue" header:"-"`
}

// HintRow is one section hint of a stored kernel.
type HintRow struct {
	ReportHash  string `duckdb:"report_hash,pk" json:"reportHash"`
	KernelIndex int64  `duckdb:"kernel_index,pk" json:"kernelIndex"`
	Section     string `duckdb:"section,pk" json:"section"`
	Seq         int64  `duckdb:"seq,pk" json:"seq"`
	HintType    string `duckdb:"hint_type" json:"type"`
	Text        string `duckdb:"text" json:"text"`
}
