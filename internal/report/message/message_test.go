package message

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/ncurep/internal/report/reporttest"
)

func TestDecodeMetricValue_Double(t *testing.T) {
	v := DecodeMetricValue(reporttest.DoubleValue(3.14))
	require.NotNil(t, v)
	assert.Equal(t, KindDouble, v.Kind)
	assert.Equal(t, 3.14, v.Float64())
}

func TestDecodeMetricValue_Priority(t *testing.T) {
	tests := []struct {
		name string
		buf  reporttest.Msg
		want MetricValue
	}{
		{
			name: "string wins over numbers",
			buf:  reporttest.Msg{}.Uint(5, 7).Str(1, "text").Double(3, 1),
			want: MetricValue{Kind: KindString, Str: "text"},
		},
		{
			name: "float before double",
			buf:  reporttest.Msg{}.Double(3, 2).Float(2, 1.5),
			want: MetricValue{Kind: KindFloat, Float: 1.5},
		},
		{
			name: "uint32 before uint64",
			buf:  reporttest.Msg{}.Uint(5, 9).Uint(4, 8),
			want: MetricValue{Kind: KindUint32, Uint: 8},
		},
		{
			name: "uint64 keeps full precision",
			buf:  reporttest.Msg{}.Uint(5, math.MaxUint64),
			want: MetricValue{Kind: KindUint64, Uint: math.MaxUint64},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeMetricValue(tt.buf)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestDecodeMetricValue_Absent(t *testing.T) {
	assert.Nil(t, DecodeMetricValue(nil))
	assert.Nil(t, DecodeMetricValue(reporttest.Msg{}.Uint(9, 1)))
}

func TestDecodeMetricResult(t *testing.T) {
	r := DecodeMetricResult(reporttest.MetricResult(4, reporttest.Uint64Value(12)))
	assert.Equal(t, uint64(4), r.NameID)
	require.NotNil(t, r.Value)
	assert.Equal(t, uint64(12), r.Value.Uint64())

	r = DecodeMetricResult(reporttest.MetricResult(2, nil))
	assert.Equal(t, uint64(2), r.NameID)
	assert.Nil(t, r.Value)
}

func TestDecodeSectionMetric_LabelFallback(t *testing.T) {
	m := DecodeSectionMetric(reporttest.Msg{}.Str(1, "sm__throughput"))
	assert.Equal(t, SectionMetric{Name: "sm__throughput", Label: "sm__throughput"}, m)

	m = DecodeSectionMetric(reporttest.Msg{}.Str(1, "sm__throughput").Str(2, "Compute Throughput"))
	assert.Equal(t, "Compute Throughput", m.Label)
}

func TestDecodeSection(t *testing.T) {
	buf := reporttest.Section("SpeedOfLight", "GPU Speed Of Light Throughput", 3,
		reporttest.SectionMetric{Name: "a", Label: "A"},
		reporttest.SectionMetric{Name: "b"},
	)

	s := DecodeSection(buf)
	assert.Equal(t, "SpeedOfLight", s.Identifier)
	assert.Equal(t, "GPU Speed Of Light Throughput", s.DisplayName)
	assert.Equal(t, int64(3), s.Order)
	require.NotNil(t, s.Header)
	assert.Equal(t, []SectionMetric{{Name: "a", Label: "A"}, {Name: "b", Label: "b"}}, s.Header.Metrics)
}

func TestDecodeSection_NegativeOrder(t *testing.T) {
	s := DecodeSection(reporttest.Msg{}.Str(1, "x").Uint(3, 0xffffffff))
	assert.Equal(t, int64(-1), s.Order)
	assert.Nil(t, s.Header)

	// Standard encoders sign-extend negative int32 values to 10 bytes.
	s = DecodeSection(reporttest.Msg{}.Str(1, "x").Uint(3, ^uint64(0)))
	assert.Equal(t, int64(-1), s.Order)
}

func TestDecodeRuleResult_KeepsAllTypes(t *testing.T) {
	buf := reporttest.RuleResult("Occupancy", "Occ",
		reporttest.RuleMessage{Type: 0, Text: "none"},
		reporttest.RuleMessage{Type: 2, Text: "warn"},
		reporttest.RuleMessage{Type: 4, Text: "opt"},
	)

	r := DecodeRuleResult(buf)
	assert.Equal(t, "Occupancy", r.Identifier)
	assert.Equal(t, "Occ", r.SectionIdentifier)
	require.NotNil(t, r.Body)
	require.Len(t, r.Body.Items, 3)

	var types []RuleMessageType
	for _, item := range r.Body.Items {
		require.NotNil(t, item.Message)
		types = append(types, item.Message.Type)
	}
	assert.Equal(t, []RuleMessageType{RuleMessageNone, RuleMessageWarning, RuleMessageOptimization}, types)
}

func TestDecodeSourceLine(t *testing.T) {
	l := DecodeSourceLine(reporttest.SourceLine(0xdeadbeefcafe, "FFMA R1, R2, R3", 42, 0, "kernel.cu"))
	assert.Equal(t, uint64(0xdeadbeefcafe), l.Address)
	assert.Equal(t, "FFMA R1, R2, R3", l.SASS)
	require.NotNil(t, l.Locator)
	assert.Equal(t, SourceLocator{Line: 42, FilePath: "kernel.cu"}, *l.Locator)
}

func TestDecodeProfileResult(t *testing.T) {
	buf := reporttest.Result{
		Mangled:   "_Z6kernelv",
		Function:  "kernel",
		Demangled: "kernel()",
		Grid:      reporttest.Dim3(128, 1, 1),
		Block:     reporttest.Dim3(256, 2, 1),
		ContextID: 1,
		StreamID:  7,
		Metrics: []reporttest.Msg{
			reporttest.MetricResult(0, reporttest.DoubleValue(1)),
			reporttest.MetricResult(1, reporttest.StringValue("x")),
		},
		Sections: []reporttest.Msg{reporttest.Section("A", "A", 0)},
		Rules:    []reporttest.Msg{reporttest.RuleResult("R", "A")},
		Source:   []reporttest.Msg{reporttest.SourceLine(16, "NOP", 1, 0, "")},
	}.Encode()

	r := DecodeProfileResult(buf)
	assert.Equal(t, "_Z6kernelv", r.MangledName)
	assert.Equal(t, "kernel", r.FunctionName)
	assert.Equal(t, "kernel()", r.DemangledName)
	assert.Equal(t, &Dim3{X: 128, Y: 1, Z: 1}, r.GridSize)
	assert.Equal(t, &Dim3{X: 256, Y: 2, Z: 1}, r.BlockSize)
	assert.Equal(t, uint64(1), r.ContextID)
	assert.Equal(t, uint64(7), r.StreamID)
	assert.Len(t, r.MetricResults, 2)
	assert.Len(t, r.Sections, 1)
	assert.Len(t, r.RuleResults, 1)
	assert.Len(t, r.Source, 1)
}

func TestDecodeProfileResult_IgnoresUnknownFields(t *testing.T) {
	buf := reporttest.Msg{}.Uint(99, 1).Str(6, "k").Str(98, "junk")
	r := DecodeProfileResult(buf)
	assert.Equal(t, "k", r.FunctionName)
}

func TestDecodeBlockHeader(t *testing.T) {
	st := reporttest.Msg{}.Str(1, "foo").Str(1, "bar")
	buf := reporttest.Msg{}.
		Uint(1, 2).
		Uint(2, 3).
		Sub(3, reporttest.Msg{}.Uint(1, 4242).Uint(2, 99)).
		Sub(4, st).
		Uint(5, 1024).
		Uint(6, 1).
		Uint(7, 1)

	h := DecodeBlockHeader(buf)
	assert.Equal(t, uint64(2), h.NumSources)
	assert.Equal(t, uint64(3), h.NumResults)
	assert.Equal(t, uint64(1), h.NumRangeResults)
	assert.Equal(t, uint64(1024), h.PayloadSize)
	require.NotNil(t, h.SessionDetails)
	assert.Equal(t, SessionDetails{ProcessID: 4242, CreationTime: 99}, *h.SessionDetails)
	require.NotNil(t, h.StringTable)
	assert.Equal(t, []string{"foo", "bar"}, h.StringTable.Strings)
}

func TestStringTable_Lookup(t *testing.T) {
	st := &StringTable{Strings: []string{"a", "b"}}

	s, ok := st.Lookup(1)
	assert.True(t, ok)
	assert.Equal(t, "b", s)

	_, ok = st.Lookup(2)
	assert.False(t, ok)

	var empty *StringTable
	_, ok = empty.Lookup(0)
	assert.False(t, ok)
}

func TestDecodeFileHeader(t *testing.T) {
	assert.Equal(t, FileHeader{Version: 3}, DecodeFileHeader(reporttest.Msg{}.Uint(1, 3)))
}

func TestMetricValue_MarshalJSON(t *testing.T) {
	tests := []struct {
		v    MetricValue
		want string
	}{
		{StringValue("hi"), `"hi"`},
		{DoubleValue(1.5), `1.5`},
		{Uint64Value(math.MaxUint64), `18446744073709551615`},
		{DoubleValue(math.Inf(1)), `"+Inf"`},
		{MetricValue{}, `null`},
	}
	for _, tt := range tests {
		got, err := tt.v.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got))
	}
}
