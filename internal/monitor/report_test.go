package monitor

import (
	"testing"
	"time"

	"github.com/burnin-project/burnin/internal/sysinfo"
)

func TestRates(t *testing.T) {
	start := sysinfo.CounterSnapshot{}
	end := sysinfo.CounterSnapshot{
		NetSentBytes:   10_485_760,
		NetRecvBytes:   5_242_880,
		DiskReadBytes:  31_457_280,
		DiskWriteBytes: 1_572_864,
	}

	netSent, netRecv, diskRead, diskWrite := Rates(start, end, 5*time.Second)

	if netSent != 2.0 {
		t.Errorf("netSent = %g MiB/s, want 2.0", netSent)
	}
	if netRecv != 1.0 {
		t.Errorf("netRecv = %g MiB/s, want 1.0", netRecv)
	}
	if diskRead != 6.0 {
		t.Errorf("diskRead = %g MiB/s, want 6.0", diskRead)
	}
	if diskWrite != 0.3 {
		t.Errorf("diskWrite = %g MiB/s, want 0.3", diskWrite)
	}
}

func TestRatesBackwardCounterYieldsZero(t *testing.T) {
	start := sysinfo.CounterSnapshot{NetSentBytes: 1 << 30}
	end := sysinfo.CounterSnapshot{NetSentBytes: 1 << 20}

	netSent, _, _, _ := Rates(start, end, 5*time.Second)

	if netSent != 0 {
		t.Errorf("netSent = %g after counter reset, want 0", netSent)
	}
}

func TestRatesZeroIntervalYieldsZero(t *testing.T) {
	end := sysinfo.CounterSnapshot{NetSentBytes: 1 << 20}

	netSent, _, _, _ := Rates(sysinfo.CounterSnapshot{}, end, 0)

	if netSent != 0 {
		t.Errorf("netSent = %g with zero interval, want 0", netSent)
	}
}

func TestReportLineWithTemperature(t *testing.T) {
	r := Report{
		CPUPercent:     12.5,
		MemoryPercent:  48.2,
		MemoryUsed:     2 << 30,
		DiskReadMiB:    1.2,
		DiskWriteMiB:   0.3,
		NetSentMiB:     2.0,
		NetRecvMiB:     1.0,
		Temperature:    71.0,
		HasTemperature: true,
	}

	want := "CPU Load: 12.5% | RAM Used: 48.2% (2.0GiB) | Disk I/O: R:1.2MiB/s W:0.3MiB/s | Net I/O: S:2.0MiB/s R:1.0MiB/s | CPU Temp: 71.0°C"
	if got := r.Line(); got != want {
		t.Errorf("Line() =\n%q, want\n%q", got, want)
	}
}

func TestReportLineWithoutTemperature(t *testing.T) {
	r := Report{
		CPUPercent:    99.9,
		MemoryPercent: 12.0,
		MemoryUsed:    1 << 30,
		DiskReadMiB:   0,
		DiskWriteMiB:  0,
		NetSentMiB:    0,
		NetRecvMiB:    0,
	}

	want := "CPU Load: 99.9% | RAM Used: 12.0% (1.0GiB) | Disk I/O: R:0.0MiB/s W:0.0MiB/s | Net I/O: S:0.0MiB/s R:0.0MiB/s"
	if got := r.Line(); got != want {
		t.Errorf("Line() =\n%q, want\n%q", got, want)
	}
}
