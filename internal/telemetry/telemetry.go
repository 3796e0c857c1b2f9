// Package telemetry collects and exposes Prometheus metrics for the harness:
// per-worker progress counters plus the monitor's derived gauges, served on
// /metrics when the endpoint is enabled.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collector owns the metric instruments and the optional HTTP endpoint.
// It uses its own registry so multiple collectors can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	iterations *prometheus.CounterVec
	errors     *prometheus.CounterVec

	netSentRate   prometheus.Gauge
	netRecvRate   prometheus.Gauge
	diskReadRate  prometheus.Gauge
	diskWriteRate prometheus.Gauge
	cpuLoad       prometheus.Gauge
	memoryUsed    prometheus.Gauge
	temperature   prometheus.Gauge

	server *http.Server
}

// WorkerMetrics is the per-worker instrument pair handed to each worker at
// construction.
type WorkerMetrics struct {
	Iterations prometheus.Counter
	Errors     prometheus.Counter
}

// NewCollector creates and registers all harness metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "burnin_worker_iterations_total",
			Help: "Total number of completed work units per worker",
		}, []string{"worker"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "burnin_worker_errors_total",
			Help: "Total number of transient errors per worker",
		}, []string{"worker"}),
		netSentRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "burnin_net_sent_mib_per_second",
			Help: "Network send rate over the last monitor interval",
		}),
		netRecvRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "burnin_net_recv_mib_per_second",
			Help: "Network receive rate over the last monitor interval",
		}),
		diskReadRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "burnin_disk_read_mib_per_second",
			Help: "Disk read rate over the last monitor interval",
		}),
		diskWriteRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "burnin_disk_write_mib_per_second",
			Help: "Disk write rate over the last monitor interval",
		}),
		cpuLoad: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "burnin_cpu_load_percent",
			Help: "System-wide CPU utilization sampled by the monitor",
		}),
		memoryUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "burnin_memory_used_percent",
			Help: "Virtual memory utilization sampled by the monitor",
		}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "burnin_cpu_temperature_celsius",
			Help: "Hottest CPU sensor reading, absent sensors leave zero",
		}),
	}

	c.registry.MustRegister(
		c.iterations,
		c.errors,
		c.netSentRate,
		c.netRecvRate,
		c.diskReadRate,
		c.diskWriteRate,
		c.cpuLoad,
		c.memoryUsed,
		c.temperature,
	)

	return c
}

// WorkerMetrics returns the instruments labeled for one worker tag.
func (c *Collector) WorkerMetrics(tag string) WorkerMetrics {
	return WorkerMetrics{
		Iterations: c.iterations.WithLabelValues(tag),
		Errors:     c.errors.WithLabelValues(tag),
	}
}

// ObserveRates records the four monitor rate samples in MiB/s.
func (c *Collector) ObserveRates(netSent, netRecv, diskRead, diskWrite float64) {
	c.netSentRate.Set(netSent)
	c.netRecvRate.Set(netRecv)
	c.diskReadRate.Set(diskRead)
	c.diskWriteRate.Set(diskWrite)
}

// ObserveLoad records the monitor's CPU and memory utilization samples.
func (c *Collector) ObserveLoad(cpuPercent, memoryPercent float64) {
	c.cpuLoad.Set(cpuPercent)
	c.memoryUsed.Set(memoryPercent)
}

// ObserveTemperature records the CPU temperature in °C.
func (c *Collector) ObserveTemperature(celsius float64) {
	c.temperature.Set(celsius)
}

// Handler returns the /metrics handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on addr in a background goroutine. Listen
// failures are logged, never fatal to the harness.
func (c *Collector) StartServer(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	c.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("telemetry endpoint listening", zap.String("addr", addr))
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("telemetry endpoint failed", zap.Error(err))
		}
	}()
}

// StopServer shuts the endpoint down, bounded by ctx. No-op when the server
// was never started.
func (c *Collector) StopServer(ctx context.Context) error {
	if c.server == nil {
		return nil
	}
	return c.server.Shutdown(ctx)
}
