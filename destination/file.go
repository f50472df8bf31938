// Package destination provides logger.Destination implementations: a size-rotated file sink,
// an in-memory ring, an OpenTelemetry log sink and a sink forwarding into a host zerolog.Logger.
package destination

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gaborage/logbricks/logger"
)

// ErrClosed is returned by writes to a destination that has been closed.
var ErrClosed = errors.New("destination closed")

const (
	defaultFileName = "app"
	fileExt         = ".log"
	fileBufferSize  = 32 * 1024
	dirPerm         = 0o755
	filePerm        = 0o644
)

// FileOptions configures a rotating file destination.
type FileOptions struct {
	// Dir holds the active file and its rotated siblings. Required.
	Dir string
	// Name is the file name without extension. Defaults to "app".
	Name string
	// Formatter renders each entry as one line. Defaults to logger.TextFormatter.
	Formatter logger.Formatter
	// MaxSize is the size in bytes past which the active file is rotated.
	MaxSize int64
	// MaxFiles is the number of rotated files kept next to the active one.
	MaxFiles int
}

// File writes formatted entries to <Dir>/<Name>.log and rotates it once a write would push
// it past MaxSize. Rotated files are named <Name>.1.log (newest) to <Name>.<MaxFiles>.log.
type File struct {
	opts FileOptions

	mu     sync.Mutex
	file   *os.File
	w      *bufio.Writer
	size   int64
	closed bool
}

// NewFile validates opts and returns a destination. The file is opened on first write.
func NewFile(opts FileOptions) (*File, error) {
	if opts.Dir == "" {
		return nil, errors.New("file destination: directory is required")
	}
	if opts.Name == "" {
		opts.Name = defaultFileName
	}
	if opts.Formatter == nil {
		opts.Formatter = logger.TextFormatter{}
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = logger.DefaultMaxFileSize
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = logger.DefaultMaxFileCount
	}
	return &File{opts: opts}, nil
}

// NewFileFromConfig builds a file destination using the rotation limits of cfg.
func NewFileFromConfig(dir, name string, cfg logger.Config) (*File, error) {
	return NewFile(FileOptions{
		Dir:       dir,
		Name:      name,
		Formatter: cfg.Formatter(),
		MaxSize:   cfg.MaxFileSize(),
		MaxFiles:  cfg.MaxFileCount(),
	})
}

func (f *File) Name() string { return "file" }

// Path returns the path of the active file.
func (f *File) Path() string {
	return f.path(0)
}

// path returns the active file for n == 0 and the n-th rotated file otherwise.
func (f *File) path(n int) string {
	name := f.opts.Name
	if n > 0 {
		name += "." + strconv.Itoa(n)
	}
	return filepath.Join(f.opts.Dir, name+fileExt)
}

func (f *File) Write(_ context.Context, e logger.Entry) error {
	line := f.opts.Formatter.Format(e) + "\n"

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if f.file == nil {
		if err := f.open(); err != nil {
			return err
		}
	}
	if f.size > 0 && f.size+int64(len(line)) > f.opts.MaxSize {
		if err := f.rotate(); err != nil {
			return fmt.Errorf("rotate %s: %w", f.Path(), err)
		}
	}

	n, err := f.w.WriteString(line)
	f.size += int64(n)
	return err
}

// Flush writes buffered lines to disk.
func (f *File) Flush(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.file == nil {
		return nil
	}
	if err := f.w.Flush(); err != nil {
		return err
	}
	return f.file.Sync()
}

// Close flushes and closes the active file. Closing twice is a no-op.
func (f *File) Close(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	return f.closeFile()
}

// open must be called with mu held.
func (f *File) open() error {
	if err := os.MkdirAll(f.opts.Dir, dirPerm); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(f.Path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePerm)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	f.file = file
	f.w = bufio.NewWriterSize(file, fileBufferSize)
	f.size = info.Size()
	return nil
}

// closeFile must be called with mu held.
func (f *File) closeFile() error {
	if f.file == nil {
		return nil
	}
	err := errors.Join(f.w.Flush(), f.file.Close())
	f.file = nil
	f.w = nil
	f.size = 0
	return err
}

// rotate must be called with mu held. The oldest rotated file is removed, the others shift
// up by one and the active file becomes <name>.1.log.
func (f *File) rotate() error {
	if err := f.closeFile(); err != nil {
		return err
	}

	if err := removeIfExists(f.path(f.opts.MaxFiles)); err != nil {
		return err
	}
	for i := f.opts.MaxFiles - 1; i >= 1; i-- {
		if err := renameIfExists(f.path(i), f.path(i+1)); err != nil {
			return err
		}
	}
	if err := renameIfExists(f.Path(), f.path(1)); err != nil {
		return err
	}
	return f.open()
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func renameIfExists(from, to string) error {
	if err := os.Rename(from, to); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
