package message

import (
	"encoding/json"
	"math"
	"strconv"
)

// ValueKind identifies which member of the metric value oneof is set.
type ValueKind uint8

const (
	KindString ValueKind = iota + 1
	KindFloat
	KindDouble
	KindUint32
	KindUint64
)

// MetricValue is the decoded ProfileMetricValue oneof.
type MetricValue struct {
	Kind ValueKind
	Str  string
	// Float holds KindFloat (widened) and KindDouble values.
	Float float64
	// Uint holds KindUint32 and KindUint64 values.
	Uint uint64
}

// StringValue returns a MetricValue holding s.
func StringValue(s string) MetricValue {
	return MetricValue{Kind: KindString, Str: s}
}

// DoubleValue returns a MetricValue holding f.
func DoubleValue(f float64) MetricValue {
	return MetricValue{Kind: KindDouble, Float: f}
}

// Uint64Value returns a MetricValue holding u.
func Uint64Value(u uint64) MetricValue {
	return MetricValue{Kind: KindUint64, Uint: u}
}

// IsString reports whether v carries text.
func (v MetricValue) IsString() bool {
	return v.Kind == KindString
}

// IsNumeric reports whether v carries a number.
func (v MetricValue) IsNumeric() bool {
	switch v.Kind {
	case KindFloat, KindDouble, KindUint32, KindUint64:
		return true
	}
	return false
}

// Float64 narrows a numeric value for display arithmetic. Text values
// yield NaN.
func (v MetricValue) Float64() float64 {
	switch v.Kind {
	case KindFloat, KindDouble:
		return v.Float
	case KindUint32, KindUint64:
		return float64(v.Uint)
	}
	return math.NaN()
}

// Uint64 returns the value as an unsigned integer. Floating values are
// truncated; text and negative values yield 0.
func (v MetricValue) Uint64() uint64 {
	switch v.Kind {
	case KindUint32, KindUint64:
		return v.Uint
	case KindFloat, KindDouble:
		if v.Float > 0 && v.Float < math.MaxUint64 {
			return uint64(v.Float)
		}
	}
	return 0
}

// String renders the raw value without units or grouping.
func (v MetricValue) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 32)
	case KindDouble:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindUint32, KindUint64:
		return strconv.FormatUint(v.Uint, 10)
	}
	return ""
}

// MarshalJSON encodes text as a JSON string and numbers as JSON numbers.
// Non-finite floats are encoded as strings.
func (v MetricValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindFloat, KindDouble:
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			return json.Marshal(strconv.FormatFloat(v.Float, 'g', -1, 64))
		}
		return []byte(v.String()), nil
	case KindUint32, KindUint64:
		return []byte(v.String()), nil
	}
	return []byte("null"), nil
}
