// Virtual memory usage via gopsutil.
package sysinfo

import (
	"context"

	"github.com/shirou/gopsutil/v3/mem"
)

// Memory returns the current virtual memory usage.
func (p *SystemProbe) Memory(ctx context.Context) (Memory, error) {
	v, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Memory{}, err
	}
	return Memory{
		UsedPercent: v.UsedPercent,
		UsedBytes:   v.Used,
		TotalBytes:  v.Total,
	}, nil
}
