package logger

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Logger accepts entries from any goroutine and processes them on a single worker.
//
// Lock order: lifecycleMu, then intakeMu. intakeMu guards the send/close race on the queue.
// dispatchMu is held shared while an entry is written to destinations; retiring a replaced
// configuration takes it exclusively as a barrier before closing removed destinations. No
// caller-facing operation waits on dispatchMu without a bound.
type Logger struct {
	name    string
	version string

	cfg atomic.Pointer[Config]

	queue    chan Entry
	intakeMu sync.RWMutex
	syncWG   sync.WaitGroup
	retireWG sync.WaitGroup

	dispatchMu  sync.RWMutex
	lifecycleMu sync.Mutex

	closed     atomic.Bool
	terminated atomic.Bool
	discard    atomic.Bool
	dropped    atomic.Uint64

	ctx          context.Context
	cancel       context.CancelFunc
	stopFlusher  context.CancelFunc
	workerDone   chan struct{}
	flusherDone  chan struct{}
	reconfigured chan struct{}

	diag            zerolog.Logger
	metrics         *pipelineMetrics
	clock           func() time.Time
	shutdownTimeout time.Duration
}

// New starts a logger for the SDK identified by name and version. The queue capacity of cfg
// is fixed for the lifetime of the logger.
func New(name, version string, cfg Config, opts ...Option) *Logger {
	o := buildOptions(opts)
	if cfg.queueCapacity <= 0 {
		cfg.queueCapacity = DefaultQueueCapacity
	}

	ctx, cancel := context.WithCancel(context.Background())
	flushCtx, stopFlusher := context.WithCancel(ctx)

	l := &Logger{
		name:            name,
		version:         version,
		queue:           make(chan Entry, cfg.queueCapacity),
		ctx:             ctx,
		cancel:          cancel,
		stopFlusher:     stopFlusher,
		workerDone:      make(chan struct{}),
		flusherDone:     make(chan struct{}),
		reconfigured:    make(chan struct{}, 1),
		diag:            o.diagnostics.With().Str("sdk", name).Str("sdk_version", version).Logger(),
		clock:           o.clock,
		shutdownTimeout: o.shutdownTimeout,
	}
	l.cfg.Store(&cfg)
	l.metrics = newPipelineMetrics(o.meterProvider, name, version, func() int { return len(l.queue) })

	go l.run()
	go l.flushLoop(flushCtx)
	return l
}

// Name returns the SDK name the logger was created for.
func (l *Logger) Name() string { return l.name }

// Version returns the SDK version the logger was created for.
func (l *Logger) Version() string { return l.version }

// Config returns the active configuration.
func (l *Logger) Config() Config {
	if cfg := l.cfg.Load(); cfg != nil {
		return *cfg
	}
	return Config{}
}

// Dropped returns how many entries were discarded because the queue was full.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Log records an entry. It never blocks in async mode and never panics or returns an error;
// entries are silently dropped when the logger is disabled, shut down or its queue is full.
func (l *Logger) Log(level Level, tag, message string, err error, metadata map[string]any) {
	l.submit(level, tag, message, err, metadata)
}

func (l *Logger) Verbose(tag, message string, metadata ...map[string]any) {
	l.submit(Verbose, tag, message, nil, firstMetadata(metadata))
}

func (l *Logger) Debug(tag, message string, metadata ...map[string]any) {
	l.submit(Debug, tag, message, nil, firstMetadata(metadata))
}

func (l *Logger) Info(tag, message string, metadata ...map[string]any) {
	l.submit(Info, tag, message, nil, firstMetadata(metadata))
}

func (l *Logger) Warning(tag, message string, metadata ...map[string]any) {
	l.submit(Warning, tag, message, nil, firstMetadata(metadata))
}

func (l *Logger) Error(tag, message string, err error, metadata ...map[string]any) {
	l.submit(Error, tag, message, err, firstMetadata(metadata))
}

func (l *Logger) Assert(tag, message string, err error, metadata ...map[string]any) {
	l.submit(Assert, tag, message, err, firstMetadata(metadata))
}

func firstMetadata(md []map[string]any) map[string]any {
	if len(md) == 0 {
		return nil
	}
	return md[0]
}

// submit must be called directly by the exported logging methods so that the caller
// frame sits at a fixed depth.
func (l *Logger) submit(level Level, tag, message string, err error, metadata map[string]any) {
	if l.closed.Load() {
		return
	}
	cfg := l.cfg.Load()
	if cfg == nil || !cfg.enabled {
		return
	}

	e := Entry{
		ID:          newEntryID(),
		Timestamp:   l.clock(),
		Level:       level,
		Tag:         tag,
		Message:     message,
		Err:         err,
		SDKName:     l.name,
		SDKVersion:  l.version,
		GoroutineID: currentGoroutineID(),
	}
	if cfg.collectMetadata {
		e.Metadata = cloneMetadata(metadata)
	} else {
		e.Metadata = map[string]any{}
	}
	if cfg.captureSource {
		e.Source = captureSource(2)
	}

	if cfg.async {
		l.enqueue(e)
		return
	}
	l.schedule(e)
}

func (l *Logger) enqueue(e Entry) {
	l.intakeMu.RLock()
	defer l.intakeMu.RUnlock()
	if l.closed.Load() {
		return
	}

	select {
	case l.queue <- e:
		l.metrics.recordSubmitted(l.ctx)
	default:
		l.dropped.Add(1)
		l.metrics.recordDropped(l.ctx)
	}
}

// schedule processes e on its own goroutine. Shutdown waits for these goroutines, but
// their order relative to queued entries is not defined.
func (l *Logger) schedule(e Entry) {
	l.intakeMu.RLock()
	defer l.intakeMu.RUnlock()
	if l.closed.Load() {
		return
	}

	l.syncWG.Add(1)
	l.metrics.recordSubmitted(l.ctx)
	go func() {
		defer l.syncWG.Done()
		l.process(e)
	}()
}

func (l *Logger) run() {
	defer close(l.workerDone)
	for e := range l.queue {
		if l.discard.Load() {
			continue
		}
		l.process(e)
	}
}

func (l *Logger) process(e Entry) {
	defer func() {
		if r := recover(); r != nil {
			l.diag.Error().
				Str("entry_id", e.ID).
				Str("tag", e.Tag).
				Interface("panic", r).
				Msg("recovered panic while processing log entry")
		}
	}()

	l.dispatchMu.RLock()
	defer l.dispatchMu.RUnlock()

	if l.terminated.Load() {
		return
	}

	ctx := l.ctx
	cfg := l.cfg.Load()
	if !cfg.enabled {
		l.metrics.recordFiltered(ctx, reasonDisabled)
		return
	}
	if !e.Level.AtLeast(cfg.minLevel) {
		l.metrics.recordFiltered(ctx, reasonLevel)
		return
	}

	for _, ic := range cfg.interceptors {
		next, err := ic.Intercept(ctx, e)
		if errors.Is(err, ErrDrop) {
			l.metrics.recordFiltered(ctx, reasonInterceptor)
			return
		}
		if err != nil {
			l.metrics.recordFiltered(ctx, reasonInterceptorError)
			l.diag.Warn().
				Err(err).
				Str("entry_id", e.ID).
				Str("interceptor", fmt.Sprintf("%T", ic)).
				Msg("interceptor failed, entry discarded")
			return
		}
		e = next
	}

	l.metrics.recordDelivered(ctx)
	for _, d := range cfg.destinations {
		l.guard(ctx, d, opWrite, func() error { return d.Write(ctx, e) })
	}
}

// guard runs one destination operation, converting panics to errors and reporting
// failures on the side channel. Failures never propagate.
func (l *Logger) guard(ctx context.Context, d Destination, op string, fn func() error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn()
	}()
	if err == nil {
		return
	}

	name := d.Name()
	l.metrics.recordDestinationError(ctx, name, op)
	l.diag.Warn().
		Err(err).
		Str("destination", name).
		Str("operation", op).
		Msg("destination operation failed")
}

// Flush asks every destination to emit buffered output. Failures are isolated per
// destination. Flush after Shutdown is a no-op. Flush does not hold any logger lock while a
// destination runs, so a stalled destination blocks only the caller.
func (l *Logger) Flush(ctx context.Context) {
	if l.queue == nil || l.terminated.Load() {
		return
	}

	cfg := l.cfg.Load()
	for _, d := range cfg.destinations {
		if l.terminated.Load() {
			return
		}
		l.guard(ctx, d, opFlush, func() error { return d.Flush(ctx) })
	}
}

func (l *Logger) flushLoop(ctx context.Context) {
	defer close(l.flusherDone)
	for {
		interval := l.cfg.Load().flushInterval
		if interval <= 0 {
			select {
			case <-ctx.Done():
				return
			case <-l.reconfigured:
				continue
			}
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-l.reconfigured:
			timer.Stop()
		case <-timer.C:
			l.Flush(ctx)
		}
	}
}

// UpdateConfig replaces the active configuration. Destinations of the previous configuration
// that are not part of cfg are closed once no entry is still being written with the previous
// configuration, so they never receive another write. UpdateConfig waits for that at most the
// shutdown timeout; a destination stuck in a write is closed in the background once it
// returns. The queue capacity cannot change. No-op after Shutdown.
func (l *Logger) UpdateConfig(cfg Config) {
	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()
	if l.queue == nil || l.closed.Load() {
		return
	}
	cfg.queueCapacity = cap(l.queue)

	old := l.cfg.Swap(&cfg)

	select {
	case l.reconfigured <- struct{}{}:
	default:
	}

	var removed []Destination
	for _, d := range old.destinations {
		if !containsDestination(cfg.destinations, d) && !containsDestination(removed, d) {
			removed = append(removed, d)
		}
	}
	if len(removed) > 0 {
		l.retireWG.Add(1)
		retired := make(chan struct{})
		go func() {
			defer l.retireWG.Done()
			defer close(retired)
			l.retire(removed)
		}()
		ctx, cancel := context.WithTimeout(l.ctx, l.shutdownTimeout)
		defer cancel()
		if !awaitSignal(ctx, retired) {
			l.diag.Warn().
				Strs("destinations", destinationNames(removed)).
				Dur("timeout", l.shutdownTimeout).
				Msg("removed destinations are still in use, closing them in the background")
		}
	}

	l.diag.Debug().
		Strs("destinations", cfg.DestinationNames()).
		Int("closed", len(removed)).
		Msg("configuration updated")
}

// retire closes destinations dropped by a configuration swap once every entry that may
// have loaded the previous configuration has been written.
func (l *Logger) retire(removed []Destination) {
	l.dispatchMu.Lock()
	l.dispatchMu.Unlock() //nolint:staticcheck // SA2001: barrier, not a critical section

	ctx := context.WithoutCancel(l.ctx)
	current := l.cfg.Load()
	for _, d := range removed {
		// re-added by a later swap, or closed by Shutdown as part of the current set
		if containsDestination(current.destinations, d) {
			continue
		}
		l.guard(ctx, d, opClose, func() error { return d.Close(ctx) })
	}
}

// Shutdown stops the logger. It rejects new entries, waits for queued entries to be
// processed, stops the periodic flush and closes every destination. The drain wait ends at
// the earlier of ctx's deadline and the shutdown timeout; entries still queued then are
// discarded. Stopping the flusher and closing destinations are each bounded by the shutdown
// timeout, so a destination that never returns cannot hold Shutdown. Calling Shutdown more
// than once, or on a zero Logger, is safe.
func (l *Logger) Shutdown(ctx context.Context) {
	if l == nil {
		return
	}
	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()

	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	if l.queue == nil {
		l.terminated.Store(true)
		return
	}

	l.intakeMu.Lock()
	close(l.queue)
	l.intakeMu.Unlock()

	l.awaitDrain(ctx)

	l.stopFlusher()
	stopCtx, stopCancel := context.WithTimeout(context.WithoutCancel(ctx), l.shutdownTimeout)
	if !awaitSignal(stopCtx, l.flusherDone) {
		l.diag.Warn().Dur("timeout", l.shutdownTimeout).Msg("periodic flush did not stop in time")
	}
	stopCancel()

	l.terminated.Store(true)
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.shutdownTimeout)
	defer cancel()
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		l.closeDestinations(closeCtx)
	}()
	if !awaitSignal(closeCtx, closed) {
		l.diag.Warn().Dur("timeout", l.shutdownTimeout).Msg("destinations did not close in time")
	}

	retired := make(chan struct{})
	go func() {
		l.retireWG.Wait()
		close(retired)
	}()
	awaitSignal(closeCtx, retired)

	l.metrics.unregister()
	l.cancel()
}

// awaitDrain waits for the worker and in-flight sync entries. On timeout it tells the worker
// to discard whatever is still queued.
func (l *Logger) awaitDrain(ctx context.Context) {
	timeout := l.shutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	done := make(chan struct{})
	go func() {
		<-l.workerDone
		l.syncWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-ctx.Done():
	case <-timer.C:
	}
	l.discard.Store(true)
	l.diag.Warn().
		Int("queued", len(l.queue)).
		Dur("timeout", timeout).
		Msg("shutdown deadline reached before the queue drained, discarding remaining entries")
}

func (l *Logger) closeDestinations(ctx context.Context) {
	cfg := l.cfg.Load()
	var closed []Destination
	for _, d := range cfg.destinations {
		if containsDestination(closed, d) {
			continue
		}
		closed = append(closed, d)
		l.guard(ctx, d, opClose, func() error { return d.Close(ctx) })
	}
}

func awaitSignal(ctx context.Context, done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

func destinationNames(list []Destination) []string {
	names := make([]string, len(list))
	for i, d := range list {
		names[i] = d.Name()
	}
	return names
}

// IsLoggable reports whether an entry at level would currently pass the enabled and
// minimum-level checks. Use it to skip building expensive messages.
func (l *Logger) IsLoggable(level Level) bool {
	if l.closed.Load() {
		return false
	}
	cfg := l.cfg.Load()
	return cfg != nil && cfg.enabled && level.AtLeast(cfg.minLevel)
}

// IsShutdown reports whether Shutdown has been called.
func (l *Logger) IsShutdown() bool {
	return l.closed.Load()
}

// Diagnostics returns a point-in-time description of the logger.
func (l *Logger) Diagnostics() map[string]any {
	cfg := l.Config()
	capacity := cfg.queueCapacity
	if l.queue != nil {
		capacity = cap(l.queue)
	}
	return map[string]any{
		"sdk_name":        l.name,
		"sdk_version":     l.version,
		"enabled":         cfg.enabled,
		"min_level":       cfg.minLevel.String(),
		"destinations":    cfg.DestinationNames(),
		"async":           cfg.async,
		"queue_capacity":  capacity,
		"queued":          len(l.queue),
		"dropped_entries": l.dropped.Load(),
		"is_shutdown":     l.closed.Load(),
	}
}

// containsDestination reports whether list holds d.
func containsDestination(list []Destination, d Destination) bool {
	for _, candidate := range list {
		if sameDestination(candidate, d) {
			return true
		}
	}
	return false
}

// sameDestination compares comparable destinations with ==. Values that are not comparable,
// such as structs holding a func, map or slice, are compared field by field with reference
// kinds matched by address.
func sameDestination(a, b Destination) bool {
	t := reflect.TypeOf(a)
	if t == nil || t != reflect.TypeOf(b) {
		return false
	}
	if t.Comparable() {
		return a == b
	}
	return sameValue(reflect.ValueOf(a), reflect.ValueOf(b))
}

func sameValue(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Func, reflect.Map, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Slice:
		return a.Pointer() == b.Pointer() && a.Len() == b.Len()
	case reflect.Struct:
		for i := range a.NumField() {
			if !sameValue(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Array:
		for i := range a.Len() {
			if !sameValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		if a.Elem().Type() != b.Elem().Type() {
			return false
		}
		return sameValue(a.Elem(), b.Elem())
	default:
		return a.Equal(b)
	}
}
