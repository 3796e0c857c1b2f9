// CPU utilization sampling and logical core detection via gopsutil.
package sysinfo

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// fallbackCores is used when logical core detection fails.
const fallbackCores = 4

// CPUPercent returns system-wide CPU utilization measured over the given
// interval. The call blocks for the full interval to produce a real sample
// rather than an instantaneous guess.
func (p *SystemProbe) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	overall, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, err
	}
	if len(overall) == 0 {
		return 0, fmt.Errorf("cpu percent: empty sample")
	}
	return overall[0], nil
}

// LogicalCores returns the number of logical CPU cores, falling back to a
// fixed small count when detection fails.
func LogicalCores(ctx context.Context) int {
	n, err := cpu.CountsWithContext(ctx, true)
	if err != nil || n < 1 {
		return fallbackCores
	}
	return n
}
