package destination

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gaborage/logbricks/logger"
)

// Zerolog forwards entries into a host application's zerolog.Logger.
type Zerolog struct {
	zl         zerolog.Logger
	onSeverity func(logger.Level)
}

// ZerologOption customises a Zerolog destination.
type ZerologOption func(*Zerolog)

// WithSeverityHook registers a callback invoked for every forwarded entry at Warning or
// above, so hosts can route or count serious SDK logs.
func WithSeverityHook(hook func(logger.Level)) ZerologOption {
	return func(z *Zerolog) {
		z.onSeverity = hook
	}
}

func NewZerolog(zl zerolog.Logger, opts ...ZerologOption) *Zerolog {
	z := &Zerolog{zl: zl}
	for _, opt := range opts {
		opt(z)
	}
	return z
}

func (z *Zerolog) Name() string { return "zerolog" }

// Write emits e through the host logger. Assert entries use the fatal level but never
// terminate the process.
func (z *Zerolog) Write(_ context.Context, e logger.Entry) error {
	if z.onSeverity != nil && e.Level.AtLeast(logger.Warning) {
		z.onSeverity(e.Level)
	}

	ev := z.zl.WithLevel(zerologLevel(e.Level))
	if ev == nil {
		return nil
	}
	ev = ev.
		Time("entry_time", e.Timestamp).
		Str("entry_id", e.ID).
		Str("tag", e.Tag).
		Str("sdk", e.SDKName).
		Str("sdk_version", e.SDKVersion)
	if e.Err != nil {
		ev = ev.Err(e.Err)
	}
	if e.Source != nil {
		ev = ev.Str("source", filepath.Base(e.Source.File)+":"+strconv.Itoa(e.Source.Line))
	}
	if len(e.Metadata) > 0 {
		ev = ev.Fields(e.Metadata)
	}
	ev.Msg(e.Message)
	return nil
}

func (z *Zerolog) Flush(context.Context) error { return nil }

func (z *Zerolog) Close(context.Context) error { return nil }

func zerologLevel(level logger.Level) zerolog.Level {
	switch level {
	case logger.Verbose:
		return zerolog.TraceLevel
	case logger.Debug:
		return zerolog.DebugLevel
	case logger.Info:
		return zerolog.InfoLevel
	case logger.Warning:
		return zerolog.WarnLevel
	case logger.Error:
		return zerolog.ErrorLevel
	case logger.Assert:
		return zerolog.FatalLevel
	default:
		return zerolog.NoLevel
	}
}
