package logger

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultTimeLayout is the timestamp layout of the text formatter.
const DefaultTimeLayout = "2006-01-02 15:04:05.000"

// TextFormatter renders entries as human readable lines:
//
//	2025-01-02 15:04:05.000 I/Network [payments@1.2.0] request sent {attempt=2} | timeout (client.go:42 pkg.Send)
type TextFormatter struct {
	// TimeLayout overrides DefaultTimeLayout.
	TimeLayout string
	// UTC renders timestamps in UTC instead of local time.
	UTC bool
}

// Format implements Formatter.
func (f TextFormatter) Format(e Entry) string {
	layout := f.TimeLayout
	if layout == "" {
		layout = DefaultTimeLayout
	}
	ts := e.Timestamp
	if f.UTC {
		ts = ts.UTC()
	}

	var b strings.Builder
	b.Grow(128)
	b.WriteString(ts.Format(layout))
	b.WriteByte(' ')
	b.WriteString(e.Level.Short())
	b.WriteByte('/')
	b.WriteString(e.Tag)
	if e.SDKName != "" {
		b.WriteString(" [")
		b.WriteString(e.SDKName)
		if e.SDKVersion != "" {
			b.WriteByte('@')
			b.WriteString(e.SDKVersion)
		}
		b.WriteByte(']')
	}
	b.WriteByte(' ')
	b.WriteString(e.Message)

	if len(e.Metadata) > 0 {
		keys := make([]string, 0, len(e.Metadata))
		for k := range e.Metadata {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		b.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteByte('=')
			fmt.Fprintf(&b, "%v", e.Metadata[k])
		}
		b.WriteByte('}')
	}
	if e.Err != nil {
		b.WriteString(" | ")
		b.WriteString(e.Err.Error())
	}
	if e.Source != nil {
		fmt.Fprintf(&b, " (%s:%d %s)", filepath.Base(e.Source.File), e.Source.Line, shortFunction(e.Source.Function))
	}
	return b.String()
}

// JSONFormatter renders entries as single-line JSON objects using zerolog's encoder.
type JSONFormatter struct{}

// Format implements Formatter.
func (JSONFormatter) Format(e Entry) string {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)

	ev := zl.Log().
		Str("id", e.ID).
		Int64("timestamp", e.TimestampMillis()).
		Str("level", e.Level.String()).
		Str("tag", e.Tag).
		Str("sdk", e.SDKName).
		Str("sdk_version", e.SDKVersion).
		Uint64("goroutine", e.GoroutineID)
	if e.Err != nil {
		ev = ev.AnErr("error", e.Err)
	}
	if e.Source != nil {
		ev = ev.Dict("source", zerolog.Dict().
			Str("file", e.Source.File).
			Str("function", e.Source.Function).
			Int("line", e.Source.Line))
	}
	if len(e.Metadata) > 0 {
		ev = ev.Dict("metadata", zerolog.Dict().Fields(e.Metadata))
	}
	ev.Msg(e.Message)

	return strings.TrimSuffix(buf.String(), "\n")
}

// shortFunction trims the import path from a fully qualified function name.
func shortFunction(fn string) string {
	if i := strings.LastIndexByte(fn, '/'); i >= 0 {
		return fn[i+1:]
	}
	return fn
}
