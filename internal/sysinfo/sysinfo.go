// Package sysinfo reads system-wide measurements through gopsutil. The
// monitor consumes it through the Probe interface so tests can substitute
// canned readings without touching the host.
package sysinfo

import (
	"context"
	"time"
)

// CounterSnapshot is a point-in-time reading of cumulative I/O counters.
// Values only ever grow; rates come from subtracting two snapshots.
type CounterSnapshot struct {
	DiskReadBytes  uint64
	DiskWriteBytes uint64
	NetSentBytes   uint64
	NetRecvBytes   uint64
	At             time.Time
}

// Memory is a point-in-time virtual memory reading.
type Memory struct {
	UsedPercent float64
	UsedBytes   uint64
	TotalBytes  uint64
}

// Probe is the measurement contract the monitor runs against.
type Probe interface {
	// Counters returns the current cumulative disk and network byte counters.
	Counters(ctx context.Context) (CounterSnapshot, error)

	// CPUPercent returns system-wide CPU utilization measured over the given
	// interval. The call blocks for the full interval.
	CPUPercent(ctx context.Context, interval time.Duration) (float64, error)

	// Memory returns the current virtual memory usage.
	Memory(ctx context.Context) (Memory, error)

	// CPUTemperature returns the package temperature in °C. The second return
	// is false when no usable sensor exists on this host.
	CPUTemperature(ctx context.Context) (float64, bool)
}

// SystemProbe is the gopsutil-backed Probe used in production.
type SystemProbe struct{}

// NewSystemProbe creates a probe reading from the local host.
func NewSystemProbe() *SystemProbe {
	return &SystemProbe{}
}

var _ Probe = (*SystemProbe)(nil)
