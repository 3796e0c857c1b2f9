// Package harness wires the workers, the monitor and the shared cancellation
// token into one burn-in run, and owns the idempotent shutdown sequence.
package harness

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/burnin-project/burnin/internal/cancel"
	"github.com/burnin-project/burnin/internal/config"
	"github.com/burnin-project/burnin/internal/console"
	"github.com/burnin-project/burnin/internal/monitor"
	"github.com/burnin-project/burnin/internal/stress"
	"github.com/burnin-project/burnin/internal/sysinfo"
	"github.com/burnin-project/burnin/internal/telemetry"
)

// Harness owns one run: it starts every worker plus the monitor under a
// bounded pool, blocks until the token fires and then tears everything down.
type Harness struct {
	cfg       *config.Config
	sink      *console.Sink
	tok       *cancel.Token
	collector *telemetry.Collector
	probe     sysinfo.Probe
	logger    *zap.Logger

	stopPool context.CancelFunc
	group    *errgroup.Group

	shutdownOnce sync.Once
}

// New creates a harness over the given configuration and sink.
func New(cfg *config.Config, sink *console.Sink) *Harness {
	return &Harness{
		cfg:       cfg,
		sink:      sink,
		tok:       cancel.NewToken(),
		collector: telemetry.NewCollector(),
		probe:     sysinfo.NewSystemProbe(),
		logger:    sink.Logger(),
	}
}

// Stop requests cancellation, same as an external interrupt.
func (h *Harness) Stop() {
	h.tok.Set()
}

// Run starts the full worker set and blocks until the token fires, through
// an interrupt, the max-runtime timer, a worker escalation or Stop. Shutdown
// has completed by the time Run returns.
func (h *Harness) Run(ctx context.Context) error {
	computeN := h.cfg.Workers.Compute
	if computeN <= 0 {
		computeN = sysinfo.LogicalCores(ctx)
	}

	h.installSignalHandler()
	h.bridgeContext(ctx)

	if summary, err := sysinfo.ReadHostSummary(ctx); err == nil {
		h.logger.Info("host summary",
			zap.String("hostname", summary.Hostname),
			zap.String("platform", summary.Platform),
			zap.String("kernel", summary.KernelVersion),
			zap.Int("logical_cores", summary.LogicalCores),
			zap.Uint64("total_memory_bytes", summary.TotalMemory))
	} else {
		h.logger.Warn("host summary unavailable", zap.Error(err))
	}

	// Best-effort: the disk worker recreates the file itself if this fails.
	if err := stress.EnsureScratchFile(h.cfg.Disk.Path, h.cfg.Disk.InitialBytes(), h.cfg.Disk.BufferBytes()); err != nil {
		h.logger.Warn("backing file pre-create failed, disk worker will retry",
			zap.String("path", h.cfg.Disk.Path),
			zap.Error(err))
	}

	if h.cfg.Telemetry.Enabled {
		h.collector.StartServer(h.cfg.Telemetry.Addr, h.logger)
	}

	workers := h.buildWorkers(computeN)

	poolCtx, stopPool := context.WithCancel(ctx)
	defer stopPool()
	h.stopPool = stopPool

	// Every worker plus the monitor gets a slot; nothing queues behind a
	// full pool.
	g, gctx := errgroup.WithContext(poolCtx)
	g.SetLimit(len(workers))
	h.group = g

	for _, w := range workers {
		g.Go(func() error {
			return h.runWorker(gctx, w)
		})
	}
	h.logger.Info("all workers started",
		zap.Int("compute_workers", computeN),
		zap.Int("total_workers", len(workers)))

	h.startMaxRuntimeTimer()

	<-h.tok.Done()
	h.Shutdown()
	return nil
}

// buildWorkers assembles the N compute workers, the six stress workers and
// the monitor, each with its tagged logger and instruments.
func (h *Harness) buildWorkers(computeN int) []stress.Worker {
	cfg := h.cfg
	workers := make([]stress.Worker, 0, computeN+7)

	for i := 0; i < computeN; i++ {
		logger, metrics := h.instruments(stress.CPUTag(i))
		workers = append(workers, stress.NewCPUWorker(i, cfg.Workers.MatrixSize, logger, metrics))
	}

	gpuLog, gpuMetrics := h.instruments("GPU")
	workers = append(workers, stress.NewGPUWorker(
		cfg.Workers.GPUMatrixSize, cfg.Workers.GPUReallocChance, gpuLog, gpuMetrics))

	cacheLog, cacheMetrics := h.instruments("CACHE")
	workers = append(workers, stress.NewCacheWorker(
		cfg.Cache.Elements, cfg.Cache.Stride, cacheLog, cacheMetrics))

	ramLog, ramMetrics := h.instruments("RAM")
	workers = append(workers, stress.NewRAMWorker(
		cfg.RAM.ChunkBytes(), cfg.RAM.RingCapacity, cfg.RAM.Pause.Duration, ramLog, ramMetrics))

	diskLog, diskMetrics := h.instruments("DISK")
	workers = append(workers, stress.NewDiskWorker(
		cfg.Disk.Path, cfg.Disk.BufferBytes(), cfg.Disk.InitialBytes(), diskLog, diskMetrics))

	netLog, netMetrics := h.instruments("NETWORK")
	workers = append(workers, stress.NewNetworkWorker(
		cfg.Network.URL, cfg.Network.SuccessPause.Duration, cfg.Network.ErrorBackoff.Duration, netLog, netMetrics))

	ioLog, ioMetrics := h.instruments("IO_BOUND")
	workers = append(workers, stress.NewIOBoundWorker(
		cfg.Workers.SwitchSleep.Duration, ioLog, ioMetrics))

	workers = append(workers, monitor.New(
		h.probe, cfg.Monitor.Interval.Duration, h.sink.Named("DIAGNOSIS"), h.collector))

	return workers
}

// instruments returns the tagged logger and metrics pair for one worker.
func (h *Harness) instruments(tag string) (*zap.Logger, telemetry.WorkerMetrics) {
	return h.sink.Named(tag), h.collector.WorkerMetrics(tag)
}

// runWorker runs one worker to completion. Failures, including panics, are
// fatal for that worker alone: they are logged and never propagated, so the
// rest of the pool keeps running. Errors returned after the token fired are
// part of orderly shutdown and stay silent.
func (h *Harness) runWorker(ctx context.Context, w stress.Worker) error {
	defer func() {
		if r := recover(); r != nil {
			h.sink.Named(w.Tag()).Error("worker crashed", zap.Any("panic", r))
		}
	}()

	if err := w.Run(ctx, h.tok); err != nil && !h.tok.IsSet() {
		h.sink.Named(w.Tag()).Error("worker failed", zap.Error(err))
	}
	return nil
}

// installSignalHandler maps SIGINT and SIGTERM onto the token.
func (h *Harness) installSignalHandler() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			h.logger.Info("received signal, stopping all workers",
				zap.String("signal", sig.String()))
			h.tok.Set()
		case <-h.tok.Done():
		}
	}()
}

// bridgeContext maps cancellation of the caller's context onto the token.
func (h *Harness) bridgeContext(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			h.tok.Set()
		case <-h.tok.Done():
		}
	}()
}

// startMaxRuntimeTimer arms the optional run duration limit.
func (h *Harness) startMaxRuntimeTimer() {
	d := h.cfg.Runtime.MaxRuntime.Duration
	if d <= 0 {
		return
	}
	go func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			h.logger.Info("max runtime reached, stopping all workers",
				zap.Duration("max_runtime", d))
			h.tok.Set()
		case <-h.tok.Done():
		}
	}()
}

// Shutdown tears the run down at most once: set the token, request the pool
// to stop, wait out a bounded grace period, remove the backing file and stop
// the telemetry endpoint. Every sub-step is best-effort.
func (h *Harness) Shutdown() {
	h.shutdownOnce.Do(func() {
		h.logger.Info("shutdown started")
		h.tok.Set()

		if h.stopPool != nil {
			h.stopPool()
		}

		if h.group != nil {
			done := make(chan struct{})
			go func() {
				_ = h.group.Wait()
				close(done)
			}()
			select {
			case <-done:
				h.logger.Info("all workers stopped")
			case <-time.After(h.cfg.Runtime.ShutdownGrace.Duration):
				h.logger.Warn("grace period elapsed, proceeding",
					zap.Duration("grace", h.cfg.Runtime.ShutdownGrace.Duration))
			}
		}

		switch err := os.Remove(h.cfg.Disk.Path); {
		case err == nil:
			h.logger.Info("backing file removed", zap.String("path", h.cfg.Disk.Path))
		case os.IsNotExist(err):
			// nothing to remove
		default:
			h.logger.Warn("backing file removal failed", zap.Error(err))
		}

		stopCtx, cancelStop := context.WithTimeout(context.Background(), time.Second)
		defer cancelStop()
		if err := h.collector.StopServer(stopCtx); err != nil {
			h.logger.Warn("telemetry endpoint stop failed", zap.Error(err))
		}

		h.logger.Info("shutdown complete")
	})
}
