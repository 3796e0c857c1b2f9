// The diagnosis loop.
package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/burnin-project/burnin/internal/cancel"
	"github.com/burnin-project/burnin/internal/sysinfo"
	"github.com/burnin-project/burnin/internal/telemetry"
)

// cpuSampleTime is how long the blocking CPU utilization sample averages
// over. It is part of each iteration, on top of the interval sleep.
const cpuSampleTime = time.Second

// Monitor periodically snapshots cumulative counters and reports the derived
// rates. It runs under the same pool and token as the stress workers.
type Monitor struct {
	probe      sysinfo.Probe
	interval   time.Duration
	logger     *zap.Logger
	collector  *telemetry.Collector
	hasSensors bool
}

// New creates the monitor. The logger carries the DIAGNOSIS tag; collector
// receives the gauge updates mirrored from each report.
func New(probe sysinfo.Probe, interval time.Duration, logger *zap.Logger, collector *telemetry.Collector) *Monitor {
	return &Monitor{
		probe:     probe,
		interval:  interval,
		logger:    logger,
		collector: collector,
	}
}

// Tag returns the monitor's console tag.
func (m *Monitor) Tag() string { return "DIAGNOSIS" }

// Run loops until the token fires. Temperature sensors are probed once at
// start; hosts without them never get a temperature segment. An error inside
// one iteration is logged and the loop continues at the next interval.
func (m *Monitor) Run(ctx context.Context, tok *cancel.Token) error {
	_, m.hasSensors = m.probe.CPUTemperature(ctx)
	m.logger.Info("monitor started",
		zap.Duration("interval", m.interval),
		zap.Bool("temperature_sensors", m.hasSensors))

	for !tok.IsSet() {
		if err := m.iterate(ctx, tok); err != nil {
			if tok.IsSet() {
				break
			}
			m.logger.Warn("diagnosis iteration failed", zap.Error(err))
			m.waitInterval(tok)
		}
	}
	m.logger.Info("monitor stopped")
	return nil
}

// iterate performs one snapshot-sleep-snapshot cycle and emits one report.
func (m *Monitor) iterate(ctx context.Context, tok *cancel.Token) error {
	start, err := m.probe.Counters(ctx)
	if err != nil {
		return fmt.Errorf("first counter snapshot: %w", err)
	}

	m.waitInterval(tok)
	if tok.IsSet() {
		return nil
	}

	end, err := m.probe.Counters(ctx)
	if err != nil {
		return fmt.Errorf("second counter snapshot: %w", err)
	}

	netSent, netRecv, diskRead, diskWrite := Rates(start, end, m.interval)

	cpuPercent, err := m.probe.CPUPercent(ctx, cpuSampleTime)
	if err != nil {
		return fmt.Errorf("cpu sample: %w", err)
	}
	memory, err := m.probe.Memory(ctx)
	if err != nil {
		return fmt.Errorf("memory sample: %w", err)
	}

	report := Report{
		CPUPercent:    cpuPercent,
		MemoryPercent: memory.UsedPercent,
		MemoryUsed:    memory.UsedBytes,
		DiskReadMiB:   diskRead,
		DiskWriteMiB:  diskWrite,
		NetSentMiB:    netSent,
		NetRecvMiB:    netRecv,
	}
	if m.hasSensors {
		if temp, ok := m.probe.CPUTemperature(ctx); ok {
			report.Temperature = temp
			report.HasTemperature = true
		}
	}

	m.logger.Info(report.Line())

	m.collector.ObserveRates(netSent, netRecv, diskRead, diskWrite)
	m.collector.ObserveLoad(report.CPUPercent, report.MemoryPercent)
	if report.HasTemperature {
		m.collector.ObserveTemperature(report.Temperature)
	}
	return nil
}

// waitInterval sleeps one interval or returns early when the token fires.
func (m *Monitor) waitInterval(tok *cancel.Token) {
	timer := time.NewTimer(m.interval)
	defer timer.Stop()
	select {
	case <-tok.Done():
	case <-timer.C:
	}
}
