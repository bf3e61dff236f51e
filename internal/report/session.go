package report

import (
	"cmp"

	"github.com/coral-mesh/ncurep/internal/report/transform"
)

// Device attribute metric names reported with every kernel.
const (
	attrDisplayName          = "device__attribute_display_name"
	attrSMCount              = "device__attribute_multiprocessor_count"
	attrGlobalMemory         = "device__attribute_global_memory_size"
	attrMaxThreadsPerBlock   = "device__attribute_max_threads_per_block"
	attrMaxSharedMemPerBlock = "device__attribute_max_shared_memory_per_block"
	attrMaxRegistersPerBlock = "device__attribute_max_registers_per_block"
	attrCoreClockRate        = "device__attribute_gpu_core_clock_rate"
	attrMemoryClockRate      = "device__attribute_memory_clock_rate"
	attrL2CacheSize          = "device__attribute_l2_cache_size"
)

const unknown = "Unknown"

// SessionInfo describes the profiled device. Everything but FileVersion is
// left empty when the report holds no kernels.
type SessionInfo struct {
	FileVersion          uint64 `json:"fileVersion"`
	DeviceName           string `json:"deviceName,omitempty"`
	ComputeCapability    string `json:"computeCapability,omitempty"`
	SMCount              uint64 `json:"smCount,omitempty"`
	MemoryTotal          uint64 `json:"memoryTotal,omitempty"`
	MaxThreadsPerBlock   uint64 `json:"maxThreadsPerBlock,omitempty"`
	MaxSharedMemPerBlock uint64 `json:"maxSharedMemPerBlock,omitempty"`
	MaxRegistersPerBlock uint64 `json:"maxRegistersPerBlock,omitempty"`
	ClockRate            uint64 `json:"clockRate,omitempty"`
	MemoryClockRate      uint64 `json:"memoryClockRate,omitempty"`
	L2CacheSize          uint64 `json:"l2CacheSize,omitempty"`
}

// HasDevice reports whether device attributes were derived.
func (s SessionInfo) HasDevice() bool {
	return s.DeviceName != ""
}

func deriveSession(version uint64, kernels []transform.Kernel) SessionInfo {
	info := SessionInfo{FileVersion: version}
	if len(kernels) == 0 {
		return info
	}

	first := kernels[0]
	m := first.Metrics
	num := func(name string) uint64 {
		v, _ := m.Get(name)
		return v.Uint64()
	}

	info.DeviceName = unknown
	if v, ok := m.Get(attrDisplayName); ok && v.String() != "" {
		info.DeviceName = v.String()
	}
	info.ComputeCapability = cmp.Or(first.CC, unknown)
	info.SMCount = num(attrSMCount)
	info.MemoryTotal = num(attrGlobalMemory)
	info.MaxThreadsPerBlock = num(attrMaxThreadsPerBlock)
	info.MaxSharedMemPerBlock = num(attrMaxSharedMemPerBlock)
	info.MaxRegistersPerBlock = num(attrMaxRegistersPerBlock)
	info.ClockRate = num(attrCoreClockRate)
	info.MemoryClockRate = num(attrMemoryClockRate)
	info.L2CacheSize = num(attrL2CacheSize)
	return info
}
