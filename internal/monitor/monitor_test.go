package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/burnin-project/burnin/internal/cancel"
	"github.com/burnin-project/burnin/internal/sysinfo"
	"github.com/burnin-project/burnin/internal/telemetry"
)

// fakeProbe serves a fixed sequence of snapshots, repeating the last one.
type fakeProbe struct {
	mu        sync.Mutex
	snapshots []sysinfo.CounterSnapshot
	idx       int
	cpu       float64
	cpuErr    error
	memory    sysinfo.Memory
	temp      float64
	hasTemp   bool
}

func (f *fakeProbe) Counters(ctx context.Context) (sysinfo.CounterSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.snapshots[f.idx]
	if f.idx < len(f.snapshots)-1 {
		f.idx++
	}
	return s, nil
}

func (f *fakeProbe) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	return f.cpu, f.cpuErr
}

func (f *fakeProbe) Memory(ctx context.Context) (sysinfo.Memory, error) {
	return f.memory, nil
}

func (f *fakeProbe) CPUTemperature(ctx context.Context) (float64, bool) {
	return f.temp, f.hasTemp
}

func startMonitor(t *testing.T, probe sysinfo.Probe, interval time.Duration) (*observer.ObservedLogs, *cancel.Token, <-chan error) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	m := New(probe, interval, zap.New(core).Named("DIAGNOSIS"), telemetry.NewCollector())

	if got := m.Tag(); got != "DIAGNOSIS" {
		t.Errorf("Tag = %q, want %q", got, "DIAGNOSIS")
	}

	tok := cancel.NewToken()
	done := make(chan error, 1)
	go func() {
		done <- m.Run(context.Background(), tok)
	}()
	return logs, tok, done
}

func waitForLogs(t *testing.T, logs *observer.ObservedLogs, snippet string, count int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if logs.FilterMessageSnippet(snippet).Len() >= count {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d logs containing %q; got:\n%v", count, snippet, logs.All())
}

func stopMonitor(t *testing.T, tok *cancel.Token, done <-chan error) {
	t.Helper()
	tok.Set()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}
}

func TestMonitorEmitsRateReports(t *testing.T) {
	// 524288 B over 250 ms = 2.0 MiB/s; half of that received.
	probe := &fakeProbe{
		snapshots: []sysinfo.CounterSnapshot{
			{},
			{NetSentBytes: 524_288, NetRecvBytes: 262_144},
		},
		cpu:    12.5,
		memory: sysinfo.Memory{UsedPercent: 48.2, UsedBytes: 2 << 30},
	}

	logs, tok, done := startMonitor(t, probe, 250*time.Millisecond)
	waitForLogs(t, logs, "CPU Load", 1)
	stopMonitor(t, tok, done)

	line := logs.FilterMessageSnippet("CPU Load").All()[0].Message
	for _, want := range []string{"CPU Load: 12.5%", "RAM Used: 48.2% (2.0GiB)", "S:2.0MiB/s", "R:1.0MiB/s"} {
		if !strings.Contains(line, want) {
			t.Errorf("report %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "CPU Temp") {
		t.Errorf("report %q has a temperature segment without sensors", line)
	}
}

func TestMonitorIncludesTemperatureWhenProbed(t *testing.T) {
	probe := &fakeProbe{
		snapshots: []sysinfo.CounterSnapshot{{}},
		memory:    sysinfo.Memory{UsedPercent: 10, UsedBytes: 1 << 30},
		temp:      71.0,
		hasTemp:   true,
	}

	logs, tok, done := startMonitor(t, probe, 10*time.Millisecond)
	waitForLogs(t, logs, "CPU Temp: 71.0°C", 1)
	stopMonitor(t, tok, done)
}

func TestMonitorSurvivesIterationErrors(t *testing.T) {
	probe := &fakeProbe{
		snapshots: []sysinfo.CounterSnapshot{{}},
		cpuErr:    errors.New("sensor exploded"),
	}

	logs, tok, done := startMonitor(t, probe, 5*time.Millisecond)
	// Two failures prove the loop kept going after the first.
	waitForLogs(t, logs, "diagnosis iteration failed", 2)
	stopMonitor(t, tok, done)
}
