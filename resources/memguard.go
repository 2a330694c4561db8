package resources

import (
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/khulnasoft/DataLineup/errors"
)

// MemoryStats is a point-in-time read of system memory, in bytes.
type MemoryStats struct {
	TotalBytes     uint64
	AvailableBytes uint64
}

// CurrentMemoryStats reads the host's current memory usage.
func CurrentMemoryStats() (MemoryStats, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return MemoryStats{}, errors.Wrap(err, "read memory stats")
	}
	return MemoryStats{TotalBytes: v.Total, AvailableBytes: v.Available}, nil
}

// RecommendedConcurrency caps a submit stage's concurrency so that
// `requested` concurrent in-flight items, each costing roughly
// perItemBytes, fit within available memory after reserving
// bufferBytes for the rest of the process. Mirrors the teacher's
// checkMemoryPressure budget-per-worker calculation, generalized from
// a fixed LLM-inference cost to a caller-supplied estimate.
func RecommendedConcurrency(stats MemoryStats, perItemBytes, bufferBytes uint64, requested int) int {
	if perItemBytes == 0 || stats.AvailableBytes <= bufferBytes {
		return 1
	}

	usable := stats.AvailableBytes - bufferBytes
	recommended := int(usable / perItemBytes)
	if recommended < 1 {
		recommended = 1
	}
	if requested > 0 && recommended > requested {
		return requested
	}
	return recommended
}
