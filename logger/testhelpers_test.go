package logger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testSDK     = "payments"
	testVersion = "1.2.0"
	testTag     = "Checkout"
	waitFor     = 2 * time.Second
	pollEvery   = 5 * time.Millisecond
)

var errSinkFailed = errors.New("sink failed")

// captureDestination records everything written to it.
type captureDestination struct {
	name string

	mu      sync.Mutex
	entries []Entry

	gate      chan struct{}
	flushGate chan struct{}
	writeErr  error
	flushErr  error
	closeErr  error

	entered atomic.Int32
	writes  atomic.Int32
	flushes atomic.Int32
	closes  atomic.Int32
}

func newCapture(name string) *captureDestination {
	return &captureDestination{name: name}
}

func (c *captureDestination) Name() string { return c.name }

func (c *captureDestination) Write(_ context.Context, e Entry) error {
	c.entered.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	c.writes.Add(1)
	if c.writeErr != nil {
		return c.writeErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
	return nil
}

func (c *captureDestination) Flush(context.Context) error {
	c.flushes.Add(1)
	if c.flushGate != nil {
		<-c.flushGate
	}
	return c.flushErr
}

func (c *captureDestination) Close(context.Context) error {
	c.closes.Add(1)
	return c.closeErr
}

func (c *captureDestination) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *captureDestination) Messages() []string {
	entries := c.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

// funcDestination is a value-typed destination that is not comparable with ==.
type funcDestination struct {
	name   string
	closes *atomic.Int32
	write  func(Entry) error
}

func newFuncDestination(name string, write func(Entry) error) funcDestination {
	return funcDestination{name: name, closes: new(atomic.Int32), write: write}
}

func (f funcDestination) Name() string                         { return f.name }
func (f funcDestination) Write(_ context.Context, e Entry) error { return f.write(e) }
func (f funcDestination) Flush(context.Context) error           { return nil }

func (f funcDestination) Close(context.Context) error {
	f.closes.Add(1)
	return nil
}

// panicDestination panics on every operation.
type panicDestination struct{}

func (panicDestination) Name() string                       { return "panic" }
func (panicDestination) Write(context.Context, Entry) error { panic("boom") }
func (panicDestination) Flush(context.Context) error        { panic("boom") }
func (panicDestination) Close(context.Context) error        { panic("boom") }

// newTestLogger builds a logger with a silent side channel and shuts it down at cleanup.
func newTestLogger(t *testing.T, cfg Config, opts ...Option) *Logger {
	t.Helper()
	opts = append([]Option{WithDiagnostics(zerolog.Nop())}, opts...)
	l := New(testSDK, testVersion, cfg, opts...)
	t.Cleanup(func() {
		l.Shutdown(context.Background())
	})
	return l
}

func shutdown(t *testing.T, l *Logger) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	l.Shutdown(ctx)
}

func requireEntries(t *testing.T, c *captureDestination, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(c.Entries()) >= n
	}, waitFor, pollEvery, "expected %d entries at %s", n, c.name)
}
