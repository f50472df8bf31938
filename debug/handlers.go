// Package debug exposes logger diagnostics over HTTP using echo.
package debug

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/logbricks/analytics"
	"github.com/gaborage/logbricks/config"
	"github.com/gaborage/logbricks/logger"
)

// DefaultPrefix is the route prefix used when Options.Prefix is empty.
const DefaultPrefix = "/_logbricks"

var (
	errLoggerNotFound   = errors.New("logger not found")
	errNoAnalytics      = errors.New("analytics not configured")
	errLoggerShutdown   = errors.New("logger is shut down")
	errInvalidLevelBody = errors.New(`body must be {"level": "<VERBOSE|DEBUG|INFO|WARNING|ERROR|ASSERT>"}`)
)

// DebugResponse represents a standard debug endpoint response
type DebugResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Duration  string    `json:"duration"`
	Data      any       `json:"data"`
	Error     string    `json:"error,omitempty"`
}

// Options configures the debug endpoints.
type Options struct {
	// Prefix of every route. Defaults to DefaultPrefix.
	Prefix string
	// Token enables bearer authentication when set.
	Token string
	// Collector backs the stats endpoint. Optional.
	Collector *analytics.Collector
	// ServiceName enables otelecho tracing for the debug routes when set.
	ServiceName string
	// TracerProvider used by the tracing middleware. Defaults to the global provider.
	TracerProvider trace.TracerProvider
	// Log receives access-denied warnings.
	Log zerolog.Logger
}

// OptionsFromSettings maps loaded debug settings onto Options.
func OptionsFromSettings(s config.DebugSettings) Options {
	return Options{Prefix: s.Prefix, Token: s.Token}
}

// RegisterFromSettings mounts the debug routes on e when s enables them, backing the stats
// route with collector. It reports whether any route was mounted.
func RegisterFromSettings(e *echo.Echo, registry *logger.Registry, s config.DebugSettings, collector *analytics.Collector) bool {
	if !s.Enabled {
		return false
	}
	opts := OptionsFromSettings(s)
	opts.Collector = collector
	NewHandlers(registry, opts).Register(e)
	return true
}

// Handlers serves registry diagnostics.
type Handlers struct {
	registry *logger.Registry
	opts     Options
}

func NewHandlers(registry *logger.Registry, opts Options) *Handlers {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	return &Handlers{registry: registry, opts: opts}
}

// Register mounts the debug routes on e.
func (h *Handlers) Register(e *echo.Echo) {
	g := e.Group(h.opts.Prefix)
	if h.opts.ServiceName != "" {
		var mwOpts []otelecho.Option
		if h.opts.TracerProvider != nil {
			mwOpts = append(mwOpts, otelecho.WithTracerProvider(h.opts.TracerProvider))
		}
		g.Use(otelecho.Middleware(h.opts.ServiceName, mwOpts...))
	}
	if h.opts.Token != "" {
		g.Use(h.authMiddleware())
	}

	g.GET("/loggers", h.handleList)
	g.GET("/loggers/:key", h.handleGet)
	g.POST("/loggers/:key/flush", h.handleFlush)
	g.PUT("/loggers/:key/level", h.handleSetLevel)
	g.GET("/stats", h.handleStats)
	g.DELETE("/stats", h.handleResetStats)
}

// authMiddleware rejects requests without the configured bearer token.
func (h *Handlers) authMiddleware() echo.MiddlewareFunc {
	want := []byte(h.opts.Token)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "logbricks debug routes require a bearer token")
			}
			if subtle.ConstantTimeCompare([]byte(token), want) != 1 {
				h.opts.Log.Warn().
					Str("client_ip", c.RealIP()).
					Str("route", c.Path()).
					Msg("rejected logger debug request with a wrong bearer token")
				return echo.NewHTTPError(http.StatusUnauthorized, "wrong bearer token")
			}
			return next(c)
		}
	}
}

func respond(c echo.Context, status int, start time.Time, data any, err error) error {
	resp := &DebugResponse{
		Timestamp: start,
		Duration:  time.Since(start).String(),
		Data:      data,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return c.JSON(status, resp)
}

// handleList returns the diagnostics of every registered logger, ordered by key.
func (h *Handlers) handleList(c echo.Context) error {
	start := time.Now()

	instances := h.registry.Instances()
	keys := make([]string, 0, len(instances))
	for k := range instances {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		d := instances[k].Diagnostics()
		d["key"] = k
		out = append(out, d)
	}
	return respond(c, http.StatusOK, start, out, nil)
}

func (h *Handlers) handleGet(c echo.Context) error {
	start := time.Now()
	l, ok := h.registry.Lookup(c.Param("key"))
	if !ok {
		return respond(c, http.StatusNotFound, start, nil, errLoggerNotFound)
	}
	return respond(c, http.StatusOK, start, l.Diagnostics(), nil)
}

func (h *Handlers) handleFlush(c echo.Context) error {
	start := time.Now()
	key := c.Param("key")
	l, ok := h.registry.Lookup(key)
	if !ok {
		return respond(c, http.StatusNotFound, start, nil, errLoggerNotFound)
	}
	if l.IsShutdown() {
		return respond(c, http.StatusConflict, start, nil, errLoggerShutdown)
	}
	l.Flush(c.Request().Context())
	return respond(c, http.StatusOK, start, map[string]any{"flushed": key}, nil)
}

type levelRequest struct {
	Level string `json:"level"`
}

// handleSetLevel hot-swaps the minimum level of a logger.
func (h *Handlers) handleSetLevel(c echo.Context) error {
	start := time.Now()
	l, ok := h.registry.Lookup(c.Param("key"))
	if !ok {
		return respond(c, http.StatusNotFound, start, nil, errLoggerNotFound)
	}

	var req levelRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, start, nil, errInvalidLevelBody)
	}
	level, err := logger.ParseLevel(req.Level)
	if err != nil {
		return respond(c, http.StatusBadRequest, start, nil, err)
	}
	if l.IsShutdown() {
		return respond(c, http.StatusConflict, start, nil, errLoggerShutdown)
	}

	l.UpdateConfig(l.Config().ToBuilder().MinLevel(level).Build())
	return respond(c, http.StatusOK, start, l.Diagnostics(), nil)
}

func (h *Handlers) handleStats(c echo.Context) error {
	start := time.Now()
	if h.opts.Collector == nil {
		return respond(c, http.StatusNotFound, start, nil, errNoAnalytics)
	}
	return respond(c, http.StatusOK, start, h.opts.Collector.Snapshot(), nil)
}

func (h *Handlers) handleResetStats(c echo.Context) error {
	start := time.Now()
	if h.opts.Collector == nil {
		return respond(c, http.StatusNotFound, start, nil, errNoAnalytics)
	}
	h.opts.Collector.Reset()
	return respond(c, http.StatusOK, start, h.opts.Collector.Snapshot(), nil)
}
