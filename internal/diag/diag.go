// Package diag reports host-machine resource usage, for surfacing
// alongside device state in the TUI and HTTP introspection layers.
package diag

import (
	"fmt"
	"runtime"

	psutilcpu "github.com/shirou/gopsutil/v3/cpu"
	psutilmem "github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is a single host-resource reading.
type Snapshot struct {
	CPUPercent    float64
	MemUsedPercent float64
	GoVersion     string
}

// Read takes one CPU/memory reading. The CPU percentage is instantaneous
// (a zero-duration sample against the last call), matching how a
// dashboard that polls on a tick wants it.
func Read() (Snapshot, error) {
	cpuPercent, err := psutilcpu.Percent(0, false)
	if err != nil {
		return Snapshot{}, fmt.Errorf("diag: cpu percent: %w", err)
	}
	if len(cpuPercent) == 0 {
		return Snapshot{}, fmt.Errorf("diag: cpu percent: no samples returned")
	}

	memInfo, err := psutilmem.VirtualMemory()
	if err != nil {
		return Snapshot{}, fmt.Errorf("diag: virtual memory: %w", err)
	}

	return Snapshot{
		CPUPercent:     cpuPercent[0],
		MemUsedPercent: memInfo.UsedPercent,
		GoVersion:      runtime.Version(),
	}, nil
}

// String renders the snapshot as the one-line summary the TUI status
// bar and HTTP health endpoint both use.
func (s Snapshot) String() string {
	return fmt.Sprintf("CPU: %.1f%% | RAM: %.1f%% | Go: %s", s.CPUPercent, s.MemUsedPercent, s.GoVersion)
}
