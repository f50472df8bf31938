package logger

import (
	"fmt"
	"strings"
)

// Level is the severity of a log entry. Filtering always compares Priority values.
type Level int

// Supported levels, least to most severe. Priorities follow the Android log priorities so
// values stay stable when entries are forwarded to platform loggers.
const (
	Verbose Level = iota + 2
	Debug
	Info
	Warning
	Error
	Assert
)

var levelNames = map[Level]string{
	Verbose: "VERBOSE",
	Debug:   "DEBUG",
	Info:    "INFO",
	Warning: "WARNING",
	Error:   "ERROR",
	Assert:  "ASSERT",
}

// Levels returns every level ordered by ascending priority.
func Levels() []Level {
	return []Level{Verbose, Debug, Info, Warning, Error, Assert}
}

// Priority returns the numeric priority used for filtering and range checks.
func (l Level) Priority() int {
	return int(l)
}

// AtLeast reports whether l is as severe as or more severe than other.
func (l Level) AtLeast(other Level) bool {
	return l.Priority() >= other.Priority()
}

// Valid reports whether l is one of the declared levels.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// Short returns the single-letter tag used by the text formatter (V, D, I, W, E, A).
func (l Level) Short() string {
	if !l.Valid() {
		return "?"
	}
	return l.String()[:1]
}

// ParseLevel converts a case-insensitive level name. "warn" is accepted as an alias of WARNING.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "VERBOSE", "TRACE":
		return Verbose, nil
	case "DEBUG":
		return Debug, nil
	case "INFO":
		return Info, nil
	case "WARNING", "WARN":
		return Warning, nil
	case "ERROR":
		return Error, nil
	case "ASSERT":
		return Assert, nil
	default:
		return Verbose, fmt.Errorf("invalid log level: %q", s)
	}
}
