package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// DefaultShutdownTimeout bounds how long Shutdown waits for queued entries to drain.
const DefaultShutdownTimeout = 5 * time.Second

// Option customises a Logger (or every Logger a Registry creates).
type Option func(*options)

type options struct {
	diagnostics     zerolog.Logger
	meterProvider   metric.MeterProvider
	shutdownTimeout time.Duration
	clock           func() time.Time
}

func defaultOptions() options {
	return options{
		diagnostics:     NewDiagnostics(os.Stderr),
		shutdownTimeout: DefaultShutdownTimeout,
		clock:           time.Now,
	}
}

// NewDiagnostics builds the side-channel logger used for internal failures: JSON lines at
// warn level and above, tagged with component=logbricks.
func NewDiagnostics(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(zerolog.WarnLevel).
		With().
		Timestamp().
		Str("component", "logbricks").
		Logger()
}

// WithDiagnostics replaces the side-channel logger. Use zerolog.Nop() to silence it.
func WithDiagnostics(zl zerolog.Logger) Option {
	return func(o *options) {
		o.diagnostics = zl
	}
}

// WithMeterProvider sets the provider for pipeline metrics. Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithShutdownTimeout bounds the drain wait of Shutdown when the caller's context has no
// earlier deadline.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.meterProvider == nil {
		o.meterProvider = otel.GetMeterProvider()
	}
	return o
}
