// Package units infers display units for profiler metrics from their names.
//
// Numeric values are matched against an ordered rule table keyed on the
// lower-cased metric name. The first matching rule chooses the unit and the
// scale; text values pass through untouched.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	textmsg "golang.org/x/text/message"

	"github.com/coral-mesh/ncurep/internal/report/message"
)

// Formatted is a display-ready metric value.
type Formatted struct {
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

var printer = textmsg.NewPrinter(language.English)

type rule struct {
	name   string
	match  func(n string) bool
	format func(v float64) Formatted
}

func has(n string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(n, s) {
			return true
		}
	}
	return false
}

func fixed(unit string, decimals int) func(float64) Formatted {
	return func(v float64) Formatted {
		return Formatted{Value: Number(v, decimals), Unit: unit}
	}
}

type step struct {
	min  float64
	unit string
}

// scaled divides by the first step whose threshold v reaches. The last step
// must have min 1 and is rendered with lastDecimals.
func scaled(lastDecimals int, steps ...step) func(float64) Formatted {
	return func(v float64) Formatted {
		for i, s := range steps {
			if i == len(steps)-1 {
				return Formatted{Value: Number(v, lastDecimals), Unit: s.unit}
			}
			if v >= s.min {
				return Formatted{Value: Number(v/s.min, 2), Unit: s.unit}
			}
		}
		return Formatted{Value: Number(v, 2)}
	}
}

// Order matters: frequency must precede cycle, and cycle excludes
// per_second, or clock rates would render as cycle counts.
var rules = []rule{
	{
		name:   "percent",
		match:  func(n string) bool { return has(n, ".pct", "_pct", "pct_of_peak") },
		format: fixed("%", 2),
	},
	{
		name:   "duration",
		match:  func(n string) bool { return has(n, "time_duration") },
		format: scaled(2, step{1e9, "s"}, step{1e6, "ms"}, step{1e3, "us"}, step{1, "ns"}),
	},
	{
		name:   "frequency",
		match:  func(n string) bool { return has(n, "clock_rate", "frequency", "cycles_per_second") },
		format: scaled(2, step{1e9, "Ghz"}, step{1e6, "Mhz"}, step{1, "Hz"}),
	},
	{
		name:   "cycles",
		match:  func(n string) bool { return has(n, "cycle") && !has(n, "per_second", "pct") },
		format: fixed("cycle", 2),
	},
	{
		name:   "ipc",
		match:  func(n string) bool { return has(n, "per_cycle") },
		format: fixed("inst/cycle", 2),
	},
	{
		name: "bytes",
		match: func(n string) bool {
			return has(n, "_bytes") || (has(n, "_size") && !has(n, "block_size", "grid_size"))
		},
		format: scaled(0, step{gib, "Gbyte"}, step{mib, "Mbyte"}, step{kib, "Kbyte"}, step{1, "byte"}),
	},
	{
		name:   "sectors",
		match:  func(n string) bool { return has(n, "sector") && !has(n, "hit_rate", "pct") },
		format: fixed("sector", 0),
	},
	{
		name:   "warps",
		match:  func(n string) bool { return has(n, "warp") && !has(n, "pct") },
		format: fixed("warp", 2),
	},
	{
		name:   "instructions",
		match:  func(n string) bool { return has(n, "inst") && !has(n, "per_cycle", "pct") },
		format: fixed("inst", 2),
	},
	{
		name:   "threads",
		match:  func(n string) bool { return has(n, "thread") && !has(n, "per", "pct") },
		format: fixed("thread", 0),
	},
	{
		name: "launch",
		match: func(n string) bool {
			for _, p := range []string{"launch__block_dim", "launch__grid_dim", "launch__block_size", "launch__grid_size"} {
				if strings.HasPrefix(n, p) {
					return true
				}
			}
			return has(n, "sm_count", "tpc_count")
		},
		format: fixed("", 0),
	},
	{
		name:   "registers",
		match:  func(n string) bool { return has(n, "register") },
		format: fixed("register/thread", 0),
	},
	{
		name:   "shared memory",
		match:  func(n string) bool { return has(n, "shared_mem") },
		format: scaled(0, step{kib, "Kbyte"}, step{1, "byte"}),
	},
	{
		name:   "occupancy limit",
		match:  func(n string) bool { return has(n, "occupancy_limit") },
		format: fixed("block", 0),
	},
	{
		name:   "waves",
		match:  func(n string) bool { return has(n, "waves_per") },
		format: fixed("", 2),
	},
}

// Format renders v for the metric called name.
func Format(name string, v message.MetricValue) Formatted {
	if v.IsString() {
		return Formatted{Value: v.Str}
	}
	if !v.IsNumeric() {
		return Formatted{}
	}

	n := strings.ToLower(name)
	f := v.Float64()
	for _, r := range rules {
		if r.match(n) {
			return r.format(f)
		}
	}

	if isUint(v) && v.Uint < 1e12 {
		return Formatted{Value: printer.Sprintf("%d", v.Uint)}
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e12 {
		return Formatted{Value: printer.Sprintf("%d", int64(f))}
	}
	return Formatted{Value: Number(f, 2)}
}

// Rule returns the name of the rule that classifies the metric, or "" if
// none does.
func Rule(name string) string {
	n := strings.ToLower(name)
	for _, r := range rules {
		if r.match(n) {
			return r.name
		}
	}
	return ""
}

func isUint(v message.MetricValue) bool {
	return v.Kind == message.KindUint32 || v.Kind == message.KindUint64
}

// Number renders v with the given number of decimals and English thousands
// separators on the integer part. A value that rounds to an integer is
// rendered without a fraction. Zero decimals round half up.
func Number(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	if decimals <= 0 {
		return group(math.Floor(v + 0.5))
	}

	s := strconv.FormatFloat(v, 'f', decimals, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	if strings.Trim(frac, "0") == "" {
		frac = ""
	}
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	u, err := strconv.ParseUint(intPart, 10, 64)
	if err != nil {
		return s
	}
	out := printer.Sprintf("%d", u)
	if neg && (u != 0 || frac != "") {
		out = "-" + out
	}
	if frac != "" {
		out += "." + frac
	}
	return out
}

func group(v float64) string {
	if math.Abs(v) >= math.MaxInt64 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return printer.Sprintf("%d", int64(v))
}
