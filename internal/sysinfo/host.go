// Host identity summary, logged once when the harness starts.
package sysinfo

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostSummary identifies the machine under test.
type HostSummary struct {
	Hostname      string
	Platform      string
	KernelVersion string
	LogicalCores  int
	TotalMemory   uint64
}

// ReadHostSummary gathers the startup host summary. Total memory is
// best-effort and stays zero when unavailable.
func ReadHostSummary(ctx context.Context) (HostSummary, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostSummary{}, err
	}

	s := HostSummary{
		Hostname:      info.Hostname,
		Platform:      strings.TrimSpace(info.Platform + " " + info.PlatformVersion),
		KernelVersion: info.KernelVersion,
		LogicalCores:  LogicalCores(ctx),
	}
	if v, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.TotalMemory = v.Total
	}
	return s, nil
}
