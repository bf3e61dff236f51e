// Package transform turns decoded profile results into display-ready kernel
// records.
package transform

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/coral-mesh/ncurep/internal/report/message"
	"github.com/coral-mesh/ncurep/internal/report/units"
)

// HintType is the severity of a section hint.
type HintType string

const (
	HintInfo         HintType = "INF"
	HintOptimization HintType = "OPT"
)

// Metric is one resolved section metric.
type Metric struct {
	Label   string              `json:"name"`
	Unit    string              `json:"unit"`
	Value   string              `json:"value"`
	RawName string              `json:"rawName"`
	Raw     message.MetricValue `json:"rawValue"`
}

// Hint is a rule message attached to a section.
type Hint struct {
	Type HintType `json:"type"`
	Text string   `json:"text"`
}

// Section is a display section with its resolved metrics and hints.
type Section struct {
	Name       string   `json:"name"`
	Identifier string   `json:"identifier"`
	Order      int64    `json:"order"`
	Metrics    []Metric `json:"metrics"`
	Hints      []Hint   `json:"hints"`
}

// FindMetric returns the metric with the given label.
func (s *Section) FindMetric(label string) (*Metric, bool) {
	for i := range s.Metrics {
		if s.Metrics[i].Label == label {
			return &s.Metrics[i], true
		}
	}
	return nil, false
}

// SourceRow is one disassembly line with its resolved source location.
type SourceRow struct {
	Address string `json:"address"`
	SASS    string `json:"sass"`
	PTX     string `json:"ptx"`
	File    string `json:"file"`
	Line    uint64 `json:"line"`
}

// MetricMap holds every raw metric of a kernel by name.
type MetricMap map[string]message.MetricValue

// Get returns the raw value of the named metric.
func (m MetricMap) Get(name string) (message.MetricValue, bool) {
	v, ok := m[name]
	return v, ok
}

// Names returns the metric names in lexical order.
func (m MetricMap) Names() []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Kernel is the display record of one profiled launch.
type Kernel struct {
	Name         string       `json:"name"`
	FunctionName string       `json:"functionName"`
	MangledName  string       `json:"mangledName"`
	Grid         string       `json:"grid"`
	Block        string       `json:"block"`
	GridDim      message.Dim3 `json:"gridDim"`
	BlockDim     message.Dim3 `json:"blockDim"`
	CC           string       `json:"cc"`
	ContextID    uint64       `json:"contextId"`
	StreamID     uint64       `json:"streamId"`
	Sections     []Section    `json:"sections"`
	Source       []SourceRow  `json:"source,omitempty"`
	Metrics      MetricMap    `json:"metricMap,omitempty"`
}

// FindSection returns the first section whose name contains name, ignoring
// case.
func (k *Kernel) FindSection(name string) (*Section, bool) {
	needle := strings.ToLower(name)
	for i := range k.Sections {
		if strings.Contains(strings.ToLower(k.Sections[i].Name), needle) {
			return &k.Sections[i], true
		}
	}
	return nil, false
}

const (
	attrCCMajor = "device__attribute_compute_capability_major"
	attrCCMinor = "device__attribute_compute_capability_minor"
)

// Transform builds the kernel record for pr, resolving metric names through
// st. st may be nil.
func Transform(pr message.ProfileResult, st *message.StringTable) Kernel {
	metrics := buildMetricMap(pr.MetricResults, st)

	k := Kernel{
		Name:         cmp.Or(pr.DemangledName, pr.FunctionName, pr.MangledName),
		FunctionName: pr.FunctionName,
		MangledName:  pr.MangledName,
		ContextID:    pr.ContextID,
		StreamID:     pr.StreamID,
		Sections:     buildSections(pr, metrics),
		Source:       buildSource(pr.Source, st),
		Metrics:      metrics,
	}
	if pr.GridSize != nil {
		k.GridDim = *pr.GridSize
	}
	if pr.BlockSize != nil {
		k.BlockDim = *pr.BlockSize
	}
	k.Grid = formatDim(k.GridDim)
	k.Block = formatDim(k.BlockDim)

	major, okMajor := metrics[attrCCMajor]
	minor, okMinor := metrics[attrCCMinor]
	if okMajor && okMinor {
		k.CC = major.String() + "." + minor.String()
	}
	return k
}

func formatDim(d message.Dim3) string {
	return fmt.Sprintf("%d, %d, %d", d.X, d.Y, d.Z)
}

func buildMetricMap(results []message.MetricResult, st *message.StringTable) MetricMap {
	m := make(MetricMap, len(results))
	for _, mr := range results {
		if mr.Value == nil {
			continue
		}
		name, ok := st.Lookup(mr.NameID)
		if !ok || name == "" {
			name = fmt.Sprintf("metric_%d", mr.NameID)
		}
		m[name] = *mr.Value
	}
	return m
}

func buildSections(pr message.ProfileResult, metrics MetricMap) []Section {
	sections := make([]Section, 0, len(pr.Sections))
	for _, sec := range pr.Sections {
		if sec.Header == nil {
			continue
		}
		out := Section{
			Name:       sec.DisplayName,
			Identifier: sec.Identifier,
			Order:      sec.Order,
			Metrics:    []Metric{},
			Hints:      buildHints(sec.Identifier, pr.RuleResults),
		}
		for _, sm := range sec.Header.Metrics {
			if sm.Name == "" {
				continue
			}
			raw, ok := metrics[sm.Name]
			if !ok {
				continue
			}
			f := units.Format(sm.Name, raw)
			out.Metrics = append(out.Metrics, Metric{
				Label:   cmp.Or(sm.Label, sm.Name),
				Unit:    f.Unit,
				Value:   f.Value,
				RawName: sm.Name,
				Raw:     raw,
			})
		}
		sections = append(sections, out)
	}

	slices.SortStableFunc(sections, func(a, b Section) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return sections
}

func buildHints(section string, rules []message.RuleResult) []Hint {
	hints := []Hint{}
	for _, rr := range rules {
		if rr.SectionIdentifier != section || rr.Body == nil {
			continue
		}
		for _, item := range rr.Body.Items {
			if item.Message == nil || item.Message.Text == "" {
				continue
			}
			var typ HintType
			switch item.Message.Type {
			case message.RuleMessageOptimization:
				typ = HintOptimization
			case message.RuleMessageOk:
				typ = HintInfo
			default:
				continue
			}
			hints = append(hints, Hint{Type: typ, Text: item.Message.Text})
		}
	}
	return hints
}

func buildSource(lines []message.SourceLine, st *message.StringTable) []SourceRow {
	if len(lines) == 0 {
		return nil
	}
	rows := make([]SourceRow, 0, len(lines))
	for _, sl := range lines {
		row := SourceRow{
			Address: fmt.Sprintf("0x%x", sl.Address),
			SASS:    sl.SASS,
			PTX:     sl.PTX,
		}
		if loc := sl.Locator; loc != nil {
			row.Line = loc.Line
			switch {
			case loc.FilePath != "":
				row.File = loc.FilePath
			case loc.FilePathID > 0:
				row.File, _ = st.Lookup(loc.FilePathID)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
