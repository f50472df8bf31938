package logger

import (
	"context"
	"maps"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Registry keeps one Logger per SDK identity (name and version). Registries are explicit
// values; applications that want process-wide behaviour hold a single Registry.
type Registry struct {
	mu      sync.Mutex
	loggers map[string]*Logger
	opts    []Option
}

// NewRegistry creates an empty registry. opts are applied to every Logger it creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		loggers: make(map[string]*Logger),
		opts:    opts,
	}
}

// Key returns the registry key for an SDK identity.
func Key(name, version string) string {
	return name + ":" + version
}

// GetInstance returns the Logger registered for name and version, creating it with cfg when
// absent. cfg is ignored when the instance already exists; a nil cfg means DefaultConfig.
func (r *Registry) GetInstance(name, version string, cfg *Config) *Logger {
	key := Key(name, version)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loggers == nil {
		r.loggers = make(map[string]*Logger)
	}
	if l, ok := r.loggers[key]; ok {
		return l
	}

	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	l := New(name, version, c, r.opts...)
	r.loggers[key] = l
	return l
}

// Lookup returns the Logger registered under key without creating one.
func (r *Registry) Lookup(key string) (*Logger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loggers[key]
	return l, ok
}

// Instances returns a snapshot of the registered loggers keyed by "name:version".
func (r *Registry) Instances() map[string]*Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.loggers)
}

// ShutdownAll shuts every registered logger down concurrently, then removes them from the
// registry. A logger that panics during shutdown does not prevent the others from shutting down.
func (r *Registry) ShutdownAll(ctx context.Context) {
	loggers := r.Instances()

	var g errgroup.Group
	for key, l := range loggers {
		g.Go(func() error {
			defer func() {
				if rec := recover(); rec != nil {
					l.diag.Error().Str("logger", key).Interface("panic", rec).Msg("recovered panic during shutdown")
				}
			}()
			l.Shutdown(ctx)
			return nil
		})
	}
	_ = g.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	for key, l := range loggers {
		if r.loggers[key] == l {
			delete(r.loggers, key)
		}
	}
}
