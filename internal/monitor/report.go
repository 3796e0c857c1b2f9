// Package monitor samples system-wide counters at a fixed interval and
// reports derived throughput rates alongside utilization readings. It is the
// one component that observes the machine instead of stressing it.
package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/burnin-project/burnin/internal/sysinfo"
)

// Report is one interval's derived measurements, assembled once and emitted
// as a single console line.
type Report struct {
	CPUPercent     float64
	MemoryPercent  float64
	MemoryUsed     uint64
	DiskReadMiB    float64
	DiskWriteMiB   float64
	NetSentMiB     float64
	NetRecvMiB     float64
	Temperature    float64
	HasTemperature bool
}

// Rates derives the four throughput figures in MiB/s from two counter
// snapshots taken one interval apart.
func Rates(start, end sysinfo.CounterSnapshot, interval time.Duration) (netSent, netRecv, diskRead, diskWrite float64) {
	seconds := interval.Seconds()
	netSent = rate(start.NetSentBytes, end.NetSentBytes, seconds)
	netRecv = rate(start.NetRecvBytes, end.NetRecvBytes, seconds)
	diskRead = rate(start.DiskReadBytes, end.DiskReadBytes, seconds)
	diskWrite = rate(start.DiskWriteBytes, end.DiskWriteBytes, seconds)
	return netSent, netRecv, diskRead, diskWrite
}

// rate converts a counter delta into MiB/s. A counter that moved backwards
// (reset, device hotplug) yields zero rather than a huge unsigned wrap.
func rate(start, end uint64, seconds float64) float64 {
	if end <= start || seconds <= 0 {
		return 0
	}
	return float64(end-start) / seconds / (1 << 20)
}

// Line renders the report in the fixed console layout. The temperature
// segment is omitted entirely when no sensor reading exists.
func (r Report) Line() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CPU Load: %.1f%% | RAM Used: %.1f%% (%.1fGiB) | Disk I/O: R:%.1fMiB/s W:%.1fMiB/s | Net I/O: S:%.1fMiB/s R:%.1fMiB/s",
		r.CPUPercent,
		r.MemoryPercent,
		float64(r.MemoryUsed)/(1<<30),
		r.DiskReadMiB,
		r.DiskWriteMiB,
		r.NetSentMiB,
		r.NetRecvMiB)
	if r.HasTemperature {
		fmt.Fprintf(&b, " | CPU Temp: %.1f°C", r.Temperature)
	}
	return b.String()
}
