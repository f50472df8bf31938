package logger

import (
	"context"
	"io"
	"os"
	"sync"
)

// ConsoleDestination writes formatted entries to a stream, stdout by default.
type ConsoleDestination struct {
	mu        sync.Mutex
	name      string
	out       io.Writer
	formatter Formatter
}

// NewConsoleDestination creates a console destination. A nil writer means os.Stdout and a
// nil formatter means TextFormatter.
func NewConsoleDestination(out io.Writer, formatter Formatter) *ConsoleDestination {
	if out == nil {
		out = os.Stdout
	}
	if formatter == nil {
		formatter = TextFormatter{}
	}
	return &ConsoleDestination{name: "console", out: out, formatter: formatter}
}

// Name implements Destination.
func (c *ConsoleDestination) Name() string {
	return c.name
}

// Write implements Destination.
func (c *ConsoleDestination) Write(_ context.Context, e Entry) error {
	line := c.formatter.Format(e) + "\n"

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, line)
	return err
}

// Flush syncs the stream when it is a regular file. Terminals and pipes are left alone.
func (c *ConsoleDestination) Flush(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.out.(*os.File)
	if !ok || f == os.Stdout || f == os.Stderr {
		return nil
	}
	return f.Sync()
}

// Close flushes the stream. The stream itself is owned by the caller and is not closed.
func (c *ConsoleDestination) Close(ctx context.Context) error {
	return c.Flush(ctx)
}
