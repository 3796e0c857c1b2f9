// Cumulative I/O counter snapshots. Disk counters are summed across physical
// devices; network counters use gopsutil's pre-aggregated pseudo interface.
package sysinfo

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/net"
)

// Counters reads the current cumulative disk and network byte counters.
// A failure in either source fails the whole snapshot; the caller keeps its
// previous baseline and retries next interval.
func (p *SystemProbe) Counters(ctx context.Context) (CounterSnapshot, error) {
	diskStats, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return CounterSnapshot{}, err
	}

	var read, write uint64
	for _, d := range diskStats {
		read += d.ReadBytes
		write += d.WriteBytes
	}

	netStats, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return CounterSnapshot{}, err
	}

	var sent, recv uint64
	if len(netStats) > 0 {
		sent = netStats[0].BytesSent
		recv = netStats[0].BytesRecv
	}

	return CounterSnapshot{
		DiskReadBytes:  read,
		DiskWriteBytes: write,
		NetSentBytes:   sent,
		NetRecvBytes:   recv,
		At:             time.Now(),
	}, nil
}
