package safe

import "math"

// Uint64ToInt64 converts val for signed storage columns, clamping to
// math.MaxInt64. The boolean reports whether clamping occurred.
func Uint64ToInt64(val uint64) (int64, bool) {
	if val > math.MaxInt64 {
		return math.MaxInt64, true
	}
	return int64(val), false
}

// Int64 is Uint64ToInt64 without the clamping report.
func Int64(val uint64) int64 {
	v, _ := Uint64ToInt64(val)
	return v
}
