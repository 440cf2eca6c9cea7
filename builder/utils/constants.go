package utils

import (
	"runtime"
)

// Default constants - these are used as fallbacks
// Actual values come from Config loaded from corpus.yaml
const (
	MaxResponseBytes = 16 * 1024 * 1024 // 16MB
	MaxKeyLength     = 200
)

const DefaultWorkerCountMax = 12

// GetDefaultWorkerCount returns the default worker count based on CPU cores
func GetDefaultWorkerCount() int {
	workers := runtime.NumCPU()
	if workers < 2 {
		return 2
	}
	if workers > DefaultWorkerCountMax {
		return DefaultWorkerCountMax
	}
	return workers
}
