package logger

import (
	"slices"
	"time"
)

// Defaults applied by NewBuilder and by Build for out-of-range values.
const (
	DefaultQueueCapacity = 100
	DefaultFlushInterval = 5 * time.Second
	DefaultMaxFileSize   = int64(5 * 1024 * 1024)
	DefaultMaxFileCount  = 5
)

// Config is an immutable snapshot of logger settings. It is produced by Builder.Build and
// replaced wholesale by Logger.UpdateConfig; accessors hand out copies of the slices.
type Config struct {
	enabled         bool
	minLevel        Level
	destinations    []Destination
	formatter       Formatter
	interceptors    []Interceptor
	collectMetadata bool
	captureSource   bool
	queueCapacity   int
	flushInterval   time.Duration
	async           bool
	maxFileSize     int64
	maxFileCount    int
}

// DefaultConfig returns the configuration produced by an untouched builder.
func DefaultConfig() Config {
	return NewBuilder().Build()
}

func (c Config) Enabled() bool                { return c.enabled }
func (c Config) MinLevel() Level              { return c.minLevel }
func (c Config) Formatter() Formatter         { return c.formatter }
func (c Config) CollectMetadata() bool        { return c.collectMetadata }
func (c Config) CaptureSource() bool          { return c.captureSource }
func (c Config) QueueCapacity() int           { return c.queueCapacity }
func (c Config) FlushInterval() time.Duration { return c.flushInterval }
func (c Config) Async() bool                  { return c.async }
func (c Config) MaxFileSize() int64           { return c.maxFileSize }
func (c Config) MaxFileCount() int            { return c.maxFileCount }

// Destinations returns the destinations in dispatch order.
func (c Config) Destinations() []Destination {
	return slices.Clone(c.destinations)
}

// Interceptors returns the interceptors in chain order.
func (c Config) Interceptors() []Interceptor {
	return slices.Clone(c.interceptors)
}

// DestinationNames lists destination names in dispatch order.
func (c Config) DestinationNames() []string {
	names := make([]string, 0, len(c.destinations))
	for _, d := range c.destinations {
		names = append(names, d.Name())
	}
	return names
}

// ToBuilder returns a builder seeded with c, for deriving a replacement configuration.
func (c Config) ToBuilder() *Builder {
	return &Builder{cfg: c, destinationsSet: true}
}

// Builder accumulates settings and produces an immutable Config.
type Builder struct {
	cfg             Config
	destinationsSet bool
}

// NewBuilder returns a builder holding the default settings.
func NewBuilder() *Builder {
	return &Builder{cfg: Config{
		enabled:         true,
		minLevel:        Verbose,
		formatter:       TextFormatter{},
		collectMetadata: true,
		captureSource:   true,
		queueCapacity:   DefaultQueueCapacity,
		flushInterval:   DefaultFlushInterval,
		async:           true,
		maxFileSize:     DefaultMaxFileSize,
		maxFileCount:    DefaultMaxFileCount,
	}}
}

func (b *Builder) Enabled(enabled bool) *Builder {
	b.cfg.enabled = enabled
	return b
}

func (b *Builder) MinLevel(level Level) *Builder {
	b.cfg.minLevel = level
	return b
}

// Destinations replaces the destination list. An empty call leaves the logger without sinks.
func (b *Builder) Destinations(destinations ...Destination) *Builder {
	b.cfg.destinations = compact(destinations)
	b.destinationsSet = true
	return b
}

// AddDestination appends a destination. The first call replaces the default console sink.
func (b *Builder) AddDestination(d Destination) *Builder {
	if d == nil {
		return b
	}
	b.cfg.destinations = append(slices.Clip(b.cfg.destinations), d)
	b.destinationsSet = true
	return b
}

func (b *Builder) Formatter(f Formatter) *Builder {
	if f != nil {
		b.cfg.formatter = f
	}
	return b
}

// Interceptors replaces the interceptor chain.
func (b *Builder) Interceptors(interceptors ...Interceptor) *Builder {
	b.cfg.interceptors = compact(interceptors)
	return b
}

// AddInterceptor appends an interceptor to the chain.
func (b *Builder) AddInterceptor(i Interceptor) *Builder {
	if i == nil {
		return b
	}
	b.cfg.interceptors = append(slices.Clip(b.cfg.interceptors), i)
	return b
}

func (b *Builder) CollectMetadata(enabled bool) *Builder {
	b.cfg.collectMetadata = enabled
	return b
}

func (b *Builder) CaptureSource(enabled bool) *Builder {
	b.cfg.captureSource = enabled
	return b
}

func (b *Builder) QueueCapacity(capacity int) *Builder {
	b.cfg.queueCapacity = capacity
	return b
}

// FlushInterval sets the periodic flush interval; zero or negative disables it.
func (b *Builder) FlushInterval(d time.Duration) *Builder {
	b.cfg.flushInterval = d
	return b
}

func (b *Builder) Async(async bool) *Builder {
	b.cfg.async = async
	return b
}

func (b *Builder) MaxFileSize(size int64) *Builder {
	b.cfg.maxFileSize = size
	return b
}

func (b *Builder) MaxFileCount(count int) *Builder {
	b.cfg.maxFileCount = count
	return b
}

// Build returns the configuration. The builder may keep being used afterwards without
// affecting configurations it already produced.
func (b *Builder) Build() Config {
	cfg := b.cfg
	cfg.destinations = slices.Clone(cfg.destinations)
	cfg.interceptors = slices.Clone(cfg.interceptors)

	if !b.destinationsSet {
		cfg.destinations = []Destination{NewConsoleDestination(nil, cfg.formatter)}
	}
	if !cfg.minLevel.Valid() {
		cfg.minLevel = Verbose
	}
	if cfg.queueCapacity <= 0 {
		cfg.queueCapacity = DefaultQueueCapacity
	}
	if cfg.maxFileSize <= 0 {
		cfg.maxFileSize = DefaultMaxFileSize
	}
	if cfg.maxFileCount <= 0 {
		cfg.maxFileCount = DefaultMaxFileCount
	}
	return cfg
}

func compact[T comparable](in []T) []T {
	var zero T
	out := make([]T, 0, len(in))
	for _, v := range in {
		if v != zero {
			out = append(out, v)
		}
	}
	return out
}
