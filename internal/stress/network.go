// Network worker: streams a large remote file over and over, discarding
// every byte.
package stress

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/burnin-project/burnin/internal/cancel"
	"github.com/burnin-project/burnin/internal/telemetry"
)

// streamChunkSize is how much body is read between cancellation checks.
const streamChunkSize = 1 << 20

// NetworkWorker downloads the configured URL in a loop. Certificate
// validation is disabled for this client only: TLS problems on the download
// host must not end a stress run. Errors are never fatal here; the worker
// backs off and retries.
type NetworkWorker struct {
	url          string
	successPause time.Duration
	errorBackoff time.Duration
	client       *http.Client
	logger       *zap.Logger
	metrics      telemetry.WorkerMetrics
}

// NewNetworkWorker creates the single download worker.
func NewNetworkWorker(url string, successPause, errorBackoff time.Duration, logger *zap.Logger, metrics telemetry.WorkerMetrics) *NetworkWorker {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
		}).DialContext,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: true},
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
	return &NetworkWorker{
		url:          url,
		successPause: successPause,
		errorBackoff: errorBackoff,
		client:       &http.Client{Transport: transport},
		logger:       logger,
		metrics:      metrics,
	}
}

// Tag returns the worker tag.
func (w *NetworkWorker) Tag() string { return "NETWORK" }

// Run downloads until the token fires: a short pause after each completed
// download, a longer backoff after any failure.
func (w *NetworkWorker) Run(ctx context.Context, tok *cancel.Token) error {
	w.logger.Info("download loop started", zap.String("url", w.url))

	buf := make([]byte, streamChunkSize)
	for !tok.IsSet() {
		done, err := w.download(ctx, tok, buf)
		if err != nil {
			if tok.IsSet() {
				break
			}
			w.metrics.Errors.Inc()
			w.logger.Warn("download failed, backing off",
				zap.Error(err),
				zap.Duration("backoff", w.errorBackoff))
			sleepOrCancel(tok, w.errorBackoff)
			continue
		}
		if done {
			w.metrics.Iterations.Inc()
		}
		sleepOrCancel(tok, w.successPause)
	}
	w.logger.Info("download loop stopped")
	return nil
}

// download streams one response body to nowhere. It returns done=false with
// a nil error when the token fired mid-stream and the download was
// abandoned.
func (w *NetworkWorker) download(ctx context.Context, tok *cancel.Token, buf []byte) (done bool, err error) {
	reqCtx, cancelReq := tok.Context(ctx)
	defer cancelReq()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, w.url, nil)
	if err != nil {
		return false, fmt.Errorf("building request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if resp.ContentLength > 0 {
		w.logger.Info("connection established",
			zap.Int64("expected_bytes", resp.ContentLength))
	}

	var received int64
	for {
		if tok.IsSet() {
			return false, nil
		}
		n, err := resp.Body.Read(buf)
		received += int64(n)
		if err == io.EOF {
			break
		}
		if err != nil {
			if tok.IsSet() {
				return false, nil
			}
			return false, fmt.Errorf("streaming body: %w", err)
		}
	}

	w.logger.Info("download completed", zap.Int64("bytes", received))
	return true, nil
}
