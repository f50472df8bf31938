package logger

import (
	"bytes"
	"maps"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// SourceLocation identifies the code that produced an entry.
type SourceLocation struct {
	File     string `json:"file"`
	Function string `json:"function"`
	Line     int    `json:"line"`
}

// Entry is one logged event. Entries are values and are never modified once created;
// interceptors that need to change an entry build a new one with the With* helpers.
type Entry struct {
	ID          string
	Timestamp   time.Time
	Level       Level
	Tag         string
	Message     string
	Err         error
	Metadata    map[string]any
	SDKName     string
	SDKVersion  string
	GoroutineID uint64
	Source      *SourceLocation
}

// TimestampMillis returns the creation time in milliseconds since the Unix epoch.
func (e Entry) TimestampMillis() int64 {
	return e.Timestamp.UnixMilli()
}

// Field returns a metadata value.
func (e Entry) Field(key string) (any, bool) {
	v, ok := e.Metadata[key]
	return v, ok
}

// WithMessage returns a copy of e carrying message.
func (e Entry) WithMessage(message string) Entry {
	e.Message = message
	return e
}

// WithTag returns a copy of e carrying tag.
func (e Entry) WithTag(tag string) Entry {
	e.Tag = tag
	return e
}

// WithLevel returns a copy of e carrying level.
func (e Entry) WithLevel(level Level) Entry {
	e.Level = level
	return e
}

// WithMetadata returns a copy of e whose metadata is a private copy of metadata.
func (e Entry) WithMetadata(metadata map[string]any) Entry {
	e.Metadata = cloneMetadata(metadata)
	return e
}

// WithField returns a copy of e with key set in a fresh metadata map.
func (e Entry) WithField(key string, value any) Entry {
	md := make(map[string]any, len(e.Metadata)+1)
	maps.Copy(md, e.Metadata)
	md[key] = value
	e.Metadata = md
	return e
}

func cloneMetadata(md map[string]any) map[string]any {
	if len(md) == 0 {
		return map[string]any{}
	}
	return maps.Clone(md)
}

func newEntryID() string {
	return uuid.NewString()
}

var goroutinePrefix = []byte("goroutine ")

// currentGoroutineID parses the id out of the first line of the current stack
// ("goroutine 42 [running]:"). Returns 0 if the format is not recognised.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// captureSource returns the frame skip levels above its caller.
func captureSource(skip int) *SourceLocation {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return nil
	}
	loc := &SourceLocation{File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		loc.Function = fn.Name()
	}
	return loc
}
