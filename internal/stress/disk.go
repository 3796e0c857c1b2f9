// Disk worker: rewrites and rereads a fixed region of one backing file.
//
// The file is opened fresh every cycle so an unlinked or missing file is
// observed as ENOENT instead of silently writing into an orphaned inode.
// A missing file triggers recreation; recreation failure is the one
// condition that escalates to a full harness shutdown, because a run that
// cannot touch persistent storage is not a burn-in.
package stress

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/burnin-project/burnin/internal/cancel"
	"github.com/burnin-project/burnin/internal/telemetry"
)

// DiskWorker writes a random buffer at offset zero and reads it back, once
// per iteration.
type DiskWorker struct {
	path        string
	bufSize     int
	initialSize int64
	logger      *zap.Logger
	metrics     telemetry.WorkerMetrics
}

// NewDiskWorker creates the single disk worker.
func NewDiskWorker(path string, bufferBytes int, initialBytes int64, logger *zap.Logger, metrics telemetry.WorkerMetrics) *DiskWorker {
	return &DiskWorker{
		path:        path,
		bufSize:     bufferBytes,
		initialSize: initialBytes,
		logger:      logger,
		metrics:     metrics,
	}
}

// Tag returns the worker tag.
func (w *DiskWorker) Tag() string { return "DISK" }

// Run cycles write/read until the token fires. Transient I/O errors keep the
// loop going; only a failed file creation ends the run.
func (w *DiskWorker) Run(ctx context.Context, tok *cancel.Token) error {
	buf := randomBytes(w.bufSize)
	readBuf := make([]byte, w.bufSize)

	w.logger.Info("write/read loop started",
		zap.String("path", w.path),
		zap.Int("buffer_bytes", w.bufSize))

	for !tok.IsSet() {
		err := writeReadCycle(w.path, buf, readBuf)
		if err == nil {
			w.metrics.Iterations.Inc()
			continue
		}
		if os.IsNotExist(err) {
			w.logger.Warn("backing file missing, creating",
				zap.String("path", w.path),
				zap.Int64("size_bytes", w.initialSize))
			if cerr := CreateScratchFile(w.path, w.initialSize, w.bufSize); cerr != nil {
				w.metrics.Errors.Inc()
				w.logger.Error("backing file cannot be created, stopping the run",
					zap.Error(cerr))
				tok.Set()
				return fmt.Errorf("creating backing file: %w", cerr)
			}
			w.logger.Info("backing file created", zap.Int64("size_bytes", w.initialSize))
			continue
		}
		w.metrics.Errors.Inc()
		w.logger.Warn("write/read cycle failed", zap.Error(err))
	}
	w.logger.Info("write/read loop stopped")
	return nil
}

// writeReadCycle performs one write-sync-read cycle at offset zero. The open
// error is returned unwrapped so the caller can detect a missing file.
func writeReadCycle(path string, buf, readBuf []byte) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("writing %d bytes: %w", len(buf), err)
	}
	// Without the sync the loop would mostly exercise the page cache.
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing: %w", err)
	}
	if _, err := f.ReadAt(readBuf, 0); err != nil {
		return fmt.Errorf("reading %d bytes: %w", len(readBuf), err)
	}
	return nil
}

// EnsureScratchFile creates the backing file unless it already exists.
// Used for the best-effort pre-create at startup.
func EnsureScratchFile(path string, size int64, chunkSize int) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return CreateScratchFile(path, size, chunkSize)
}

// CreateScratchFile allocates the backing file and fills it with size bytes
// of random content, written in chunkSize pieces. A free-space preflight
// rejects the creation early when the target filesystem cannot hold it.
func CreateScratchFile(path string, size int64, chunkSize int) error {
	if err := checkFreeSpace(filepath.Dir(path), size); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	buf := make([]byte, chunkSize)
	for written := int64(0); written < size; {
		n := int64(len(buf))
		if remaining := size - written; remaining < n {
			n = remaining
		}
		rng.Read(buf[:n])
		if _, err := f.Write(buf[:n]); err != nil {
			f.Close()
			os.Remove(path)
			return fmt.Errorf("filling %s: %w", path, err)
		}
		written += n
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// checkFreeSpace fails when the filesystem holding dir has fewer than need
// bytes available. A failed statfs skips the preflight; the write path will
// surface any real problem.
func checkFreeSpace(dir string, need int64) error {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return nil
	}
	free := int64(st.Bavail) * int64(st.Bsize)
	if free < need {
		return fmt.Errorf("insufficient space on %s: need %d bytes, %d available", dir, need, free)
	}
	return nil
}

// randomBytes returns n bytes of pseudo-random content.
func randomBytes(n int) []byte {
	buf := make([]byte, n)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	rng.Read(buf)
	return buf
}
