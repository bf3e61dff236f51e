package report

import (
	"strings"

	"github.com/coral-mesh/ncurep/internal/report/transform"
)

const (
	speedOfLightSection = "GPU Speed Of Light Throughput"
	durationMetric      = "Duration"
)

// Kind is a coarse kernel category inferred from its name.
type Kind string

const (
	KindGEMM        Kind = "GEMM"
	KindConv        Kind = "Conv"
	KindReduce      Kind = "Reduce"
	KindElementwise Kind = "Elementwise"
	KindSoftmax     Kind = "Softmax"
	KindNorm        Kind = "Norm"
	KindAttention   Kind = "Attention"
	KindRNG         Kind = "RNG"
	KindMemory      Kind = "Memory"
	KindCompute     Kind = "Compute"
)

var kindPatterns = []struct {
	kind Kind
	subs []string
}{
	{KindGEMM, []string{"gemm", "matmul"}},
	{KindConv, []string{"conv"}},
	{KindReduce, []string{"reduce", "reduction"}},
	{KindElementwise, []string{"elementwise", "pointwise"}},
	{KindSoftmax, []string{"softmax"}},
	{KindNorm, []string{"norm"}},
	{KindAttention, []string{"attention", "flash"}},
	{KindRNG, []string{"distribution", "random", "normal"}},
	{KindMemory, []string{"copy", "memcpy", "memset"}},
}

// Classify infers the kernel category from its name. Patterns are checked
// in a fixed order and the first hit wins; unmatched kernels are Compute.
func Classify(name string) Kind {
	lower := strings.ToLower(name)
	for _, p := range kindPatterns {
		for _, s := range p.subs {
			if strings.Contains(lower, s) {
				return p.kind
			}
		}
	}
	return KindCompute
}

// ParseKind resolves a case-insensitive kind name.
func ParseKind(s string) (Kind, bool) {
	for _, p := range kindPatterns {
		if strings.EqualFold(string(p.kind), s) {
			return p.kind, true
		}
	}
	if strings.EqualFold(string(KindCompute), s) {
		return KindCompute, true
	}
	return "", false
}

// KernelSummary is the one-line view of a kernel.
type KernelSummary struct {
	Index     int    `json:"index" header:"#"`
	ShortName string `json:"shortName" header:"Kernel"`
	Kind      Kind   `json:"kind" header:"Kind"`
	Grid      string `json:"grid" header:"Grid"`
	Block     string `json:"block" header:"Block"`
	Duration  string `json:"duration" header:"Duration"`
	Name      string `json:"name" header:"-"`
}

// ShortName strips the argument list and namespace qualifiers from a kernel
// name.
func ShortName(name string) string {
	if name == "" {
		return unknown
	}
	if i := strings.Index(name, "("); i > 0 {
		name = name[:i]
	}
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	return name
}

// Summarize builds the summary of the kernel at index.
func Summarize(index int, k *transform.Kernel) KernelSummary {
	s := KernelSummary{
		Index:     index,
		ShortName: ShortName(k.Name),
		Kind:      Classify(k.Name),
		Grid:      k.Grid,
		Block:     k.Block,
		Name:      k.Name,
	}
	if sol, ok := k.FindSection(speedOfLightSection); ok {
		if d, ok := sol.FindMetric(durationMetric); ok {
			s.Duration = d.Value + " " + d.Unit
		}
	}
	return s
}

// Summaries summarizes every kernel of r.
func (r *Report) Summaries() []KernelSummary {
	out := make([]KernelSummary, 0, len(r.Kernels))
	for i := range r.Kernels {
		out = append(out, Summarize(i, &r.Kernels[i]))
	}
	return out
}
