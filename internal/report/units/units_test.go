package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coral-mesh/ncurep/internal/report/message"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		metric string
		value  message.MetricValue
		want   Formatted
	}{
		{"duration seconds", "gpu__time_duration.sum", message.Uint64Value(1500000000), Formatted{"1.50", "s"}},
		{"duration milliseconds", "gpu__time_duration.sum", message.DoubleValue(2.5e6), Formatted{"2.50", "ms"}},
		{"duration microseconds", "gpu__time_duration.sum", message.Uint64Value(4096), Formatted{"4.10", "us"}},
		{"duration nanoseconds", "gpu__time_duration.sum", message.Uint64Value(640), Formatted{"640", "ns"}},
		{"kilobytes", "dram__bytes_read.sum", message.Uint64Value(2048), Formatted{"2", "Kbyte"}},
		{"megabytes", "dram__bytes.sum", message.Uint64Value(3 * 1024 * 1024 / 2), Formatted{"1.50", "Mbyte"}},
		{"gigabytes", "device__attribute_global_memory_size", message.Uint64Value(80 << 30), Formatted{"80", "Gbyte"}},
		{"plain bytes", "lts__t_bytes", message.Uint64Value(512), Formatted{"512", "byte"}},
		{"block size is not bytes", "launch__block_size", message.Uint64Value(256), Formatted{"256", ""}},
		{"percent", "sm__throughput.avg.pct_of_peak_sustained_elapsed", message.DoubleValue(87.456), Formatted{"87.46", "%"}},
		{"clock rate", "device__attribute_gpu_core_clock_rate", message.Uint64Value(1410000000), Formatted{"1.41", "Ghz"}},
		{"cycles per second is frequency", "sm__cycles_per_second", message.DoubleValue(1.2e6), Formatted{"1.20", "Mhz"}},
		{"cycles", "sm__cycles_elapsed.max", message.Uint64Value(1234567), Formatted{"1,234,567", "cycle"}},
		{"per_cycle is shadowed by cycle", "sm__inst_executed.avg.per_cycle_active", message.DoubleValue(2.346), Formatted{"2.35", "cycle"}},
		{"sectors", "lts__t_sectors.sum", message.Uint64Value(9876543), Formatted{"9,876,543", "sector"}},
		{"warps", "sm__warps_active.avg", message.DoubleValue(40.5), Formatted{"40.50", "warp"}},
		{"instructions", "smsp__inst_executed.sum", message.Uint64Value(1000), Formatted{"1,000", "inst"}},
		{"threads", "launch__thread_count", message.Uint64Value(65536), Formatted{"65,536", "thread"}},
		{"registers", "launch__registers_per_thread", message.Uint64Value(32), Formatted{"32", "register/thread"}},
		{"occupancy limit", "launch__occupancy_limit_blocks", message.Uint64Value(16), Formatted{"16", "block"}},
		{"waves", "launch__waves_per_multiprocessor", message.DoubleValue(0.456), Formatted{"0.46", ""}},
		{"sm count", "device__attribute_multiprocessor_sm_count", message.Uint64Value(108), Formatted{"108", ""}},
		{"unmatched integer", "something__else", message.Uint64Value(1234567), Formatted{"1,234,567", ""}},
		{"unmatched integral double", "something__else", message.DoubleValue(42), Formatted{"42", ""}},
		{"unmatched fraction", "something__else", message.DoubleValue(3.14159), Formatted{"3.14", ""}},
		{"unmatched huge", "something__else", message.Uint64Value(2e12), Formatted{"2,000,000,000,000", ""}},
		{"text passes through", "device__attribute_display_name", message.StringValue("NVIDIA A100"), Formatted{"NVIDIA A100", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.metric, tt.value))
		})
	}
}

func TestFormat_CaseInsensitive(t *testing.T) {
	assert.Equal(t, Formatted{"1.50", "s"}, Format("GPU__TIME_DURATION.SUM", message.Uint64Value(1500000000)))
}

func TestRule_Order(t *testing.T) {
	assert.Equal(t, "frequency", Rule("sm__cycles_per_second"))
	assert.Equal(t, "cycles", Rule("sm__cycles_elapsed.avg"))
	assert.Equal(t, "percent", Rule("sm__cycles_active.avg.pct_of_peak"))
	assert.Equal(t, "", Rule("profiler__replayer_passes"))
}

func TestNumber(t *testing.T) {
	tests := []struct {
		v        float64
		decimals int
		want     string
	}{
		{1234567.891, 2, "1,234,567.89"},
		{-1234.5, 2, "-1,234.50"},
		{2, 2, "2"},
		{1.999, 2, "2"},
		{-0.001, 2, "0"},
		{2.5, 0, "3"},
		{999999.6, 0, "1,000,000"},
		{math.NaN(), 2, "NaN"},
		{math.Inf(-1), 2, "-Inf"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Number(tt.v, tt.decimals), "Number(%v, %d)", tt.v, tt.decimals)
	}
}
