package sweep

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/teranos/corrsweep/errors"
)

const (
	memoryBufferGB   = 2.0 // Reserved for the OS and the desktop session
	maxRecommended   = 16
	bytesPerGigabyte = 1024 * 1024 * 1024
)

// memoryStats returns total and available memory in bytes; replaced in tests
var memoryStats = func() (total uint64, available uint64, err error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get memory stats")
	}
	return v.Total, v.Available, nil
}

// SafeWorkerCount recommends how many evaluators fit in availableGB
func SafeWorkerCount(availableGB, perWorkerGB float64) int {
	if perWorkerGB <= 0 {
		return maxRecommended
	}
	if availableGB < memoryBufferGB {
		return 1 // Always allow at least 1 worker
	}

	recommended := int((availableGB - memoryBufferGB) / perWorkerGB)
	if recommended < 1 {
		return 1
	}
	if recommended > maxRecommended {
		return maxRecommended
	}
	return recommended
}

// CheckMemoryPressure validates a worker count against available memory.
// Returns a warning message if it may be too high, empty string if OK or unknown.
func CheckMemoryPressure(workers int, perWorkerGB float64) string {
	if workers <= 1 || perWorkerGB <= 0 {
		return ""
	}

	total, available, err := memoryStats()
	if err != nil || total == 0 {
		return "" // Can't check, assume OK
	}

	availableGB := float64(available) / bytesPerGigabyte
	totalGB := float64(total) / bytesPerGigabyte
	recommended := SafeWorkerCount(availableGB, perWorkerGB)

	if workers > recommended {
		return fmt.Sprintf(
			"parallel (%d) exceeds recommended (%d) for available memory (%.1f of %.1fGB free at %.1fGB per evaluator). "+
				"Consider lowering --parallel to avoid swapping or OOM kills.",
			workers, recommended, availableGB, totalGB, perWorkerGB)
	}
	return ""
}
