package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/crimson-sun/leafcheck/internal/model"
	"github.com/crimson-sun/leafcheck/internal/output"
)

const (
	defaultBufferSize   = 64
	defaultDrainTimeout = 5 * time.Second
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("async output: closed")

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the channel buffer capacity.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithDrainTimeout bounds how long Close waits for buffered diagnoses.
func WithDrainTimeout(d time.Duration) Option {
	return func(a *Async) { a.drainTimeout = d }
}

// WithOnError sets the callback invoked when the inner output's Write fails.
// Default: logs a warning via slog.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.errFunc = f }
}

// WithDropOnFull makes Write drop the diagnosis instead of blocking when the
// buffer is full.
func WithDropOnFull() Option {
	return func(a *Async) { a.dropOnFull = true }
}

// Async hands diagnoses to a background goroutine that writes them to the
// wrapped output, so a slow destination does not hold up classification.
// Inner write errors go to errFunc, not to the caller.
type Async struct {
	inner        output.Output
	ch           chan model.Diagnosis
	done         chan struct{}
	errFunc      func(error)
	bufSize      int
	drainTimeout time.Duration
	dropOnFull   bool

	mu     sync.RWMutex
	closed bool
}

// New wraps inner and starts the drain goroutine.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:        inner,
		bufSize:      defaultBufferSize,
		drainTimeout: defaultDrainTimeout,
		errFunc:      func(err error) { slog.Warn("async output write error", "error", err) },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan model.Diagnosis, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Write queues d. It blocks while the buffer is full unless WithDropOnFull
// is set, and gives up when ctx is done.
func (a *Async) Write(ctx context.Context, d model.Diagnosis) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	if a.dropOnFull {
		select {
		case a.ch <- d:
		default:
			slog.Warn("async output buffer full, dropping diagnosis",
				"request_id", d.RequestID, "class", d.Class)
		}
		return nil
	}

	select {
	case a.ch <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting diagnoses, waits for the buffer to drain (bounded by
// the drain timeout), then closes the inner output.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.ch)
	a.mu.Unlock()

	select {
	case <-a.done:
	case <-time.After(a.drainTimeout):
		slog.Warn("async output drain timed out", "pending", len(a.ch))
	}
	return a.inner.Close()
}

func (a *Async) drain() {
	defer close(a.done)
	for d := range a.ch {
		if err := a.inner.Write(context.Background(), d); err != nil {
			a.errFunc(err)
		}
	}
}
