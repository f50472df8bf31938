// Package logger is the asynchronous log-processing core of logbricks.
//
// Callers submit entries through a Logger. In async mode entries are offered to a bounded
// queue that never blocks the caller (a full queue drops the entry) and a single worker
// goroutine runs each entry through the configured interceptors before writing it to every
// destination. Destination and interceptor failures are contained per call and reported on a
// zerolog side channel; they never reach application code.
package logger

import (
	"context"
	"errors"
)

// ErrDrop is returned by an Interceptor to remove an entry from the pipeline.
var ErrDrop = errors.New("logger: entry dropped by interceptor")

// Destination is a sink for entries. Implementations handle their own thread-safety;
// the core only guarantees that a single worker writes queued entries.
type Destination interface {
	Name() string
	Write(ctx context.Context, e Entry) error
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

// Interceptor transforms or vetoes an entry before it reaches destinations.
// Returning ErrDrop removes the entry; any other error is treated as a failure
// and the entry is discarded.
type Interceptor interface {
	Intercept(ctx context.Context, e Entry) (Entry, error)
}

// InterceptorFunc adapts a function to the Interceptor interface.
type InterceptorFunc func(ctx context.Context, e Entry) (Entry, error)

// Intercept calls f.
func (f InterceptorFunc) Intercept(ctx context.Context, e Entry) (Entry, error) {
	return f(ctx, e)
}

// Formatter renders an entry as a single line of text. It must be free of side effects.
type Formatter interface {
	Format(e Entry) string
}

// FormatterFunc adapts a function to the Formatter interface.
type FormatterFunc func(e Entry) string

// Format calls f.
func (f FormatterFunc) Format(e Entry) string {
	return f(e)
}
