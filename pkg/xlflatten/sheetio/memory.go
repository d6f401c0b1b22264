package sheetio

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"
)

// MemorySampler reports host memory utilization. The streaming extractor
// samples it between chunks to size the next chunk; it is read-only and
// injectable so tests can supply deterministic readings.
type MemorySampler interface {
	// UtilizationFraction returns used memory as a fraction in [0, 1].
	UtilizationFraction() (float64, error)
}

// SystemSampler reads live host memory statistics.
type SystemSampler struct{}

func (SystemSampler) UtilizationFraction() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("sampling memory: %w", err)
	}
	return vm.UsedPercent / 100, nil
}

// FixedSampler always returns the same fraction. Useful in tests and for
// pinning the chunk size in production.
type FixedSampler float64

func (s FixedSampler) UtilizationFraction() (float64, error) {
	return float64(s), nil
}
