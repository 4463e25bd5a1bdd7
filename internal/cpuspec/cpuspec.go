// Package cpuspec picks inference thread counts from the host CPU topology.
package cpuspec

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// CPUSpec describes the host processor.
type CPUSpec struct {
	BrandName     string
	PhysicalCores int
	LogicalCores  int
	Hybrid        bool // mixes performance and efficiency cores
	AVX2          bool
}

// GetCPUSpec reads the processor description via CPUID.
func GetCPUSpec() CPUSpec {
	return CPUSpec{
		BrandName:     cpuid.CPU.BrandName,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		Hybrid:        cpuid.CPU.Supports(cpuid.HYBRID_CPU),
		AVX2:          cpuid.CPU.Supports(cpuid.AVX2),
	}
}

// OptimalThreadCount returns the default interpreter thread count: one per
// physical core, bounded by the CPUs this process may use. Hyperthreads
// rarely help a single small model.
func (c CPUSpec) OptimalThreadCount() int {
	return c.threadCount(runtime.NumCPU())
}

func (c CPUSpec) threadCount(available int) int {
	n := c.PhysicalCores
	if n <= 0 {
		n = c.LogicalCores
	}
	if n <= 0 || n > available {
		n = available
	}
	return max(n, 1)
}

// ThreadCount resolves a configured thread count: non-positive values use
// OptimalThreadCount and larger values are clamped to runtime.NumCPU.
func ThreadCount(configured int) int {
	available := runtime.NumCPU()
	if configured > 0 {
		return min(configured, available)
	}
	return GetCPUSpec().threadCount(available)
}
