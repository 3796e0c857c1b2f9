// Package cancel provides the shared cancellation token that coordinates
// every worker and the monitor. The token has exactly one legal transition
// (unset -> set); once set it can never be cleared, so a single observation
// of IsSet() == true is permanent.
package cancel

import (
	"context"
	"sync"
	"sync/atomic"
)

// Token is a one-shot cancellation signal safe for concurrent use.
// The zero value is not usable; construct with NewToken.
type Token struct {
	fired atomic.Bool
	once  sync.Once
	done  chan struct{}
}

// NewToken returns an unset token.
func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Set fires the token. It is idempotent and safe to call from any number
// of goroutines; every IsSet call that starts after Set returns observes true.
func (t *Token) Set() {
	t.once.Do(func() {
		t.fired.Store(true)
		close(t.done)
	})
}

// IsSet reports whether the token has fired. It never blocks.
func (t *Token) IsSet() bool {
	return t.fired.Load()
}

// Done returns a channel closed when the token fires, for select-based waits.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Context derives a context from parent that is cancelled when the token
// fires. The returned CancelFunc releases the bridge goroutine and must be
// called when the context is no longer needed.
func (t *Token) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-t.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
