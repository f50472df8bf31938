package debug

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/gaborage/logbricks/analytics"
	"github.com/gaborage/logbricks/config"
	"github.com/gaborage/logbricks/destination"
	"github.com/gaborage/logbricks/logger"
)

const testToken = "test-secret-token"

type fixture struct {
	e         *echo.Echo
	registry  *logger.Registry
	collector *analytics.Collector
	sink      *destination.Memory
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		e:         echo.New(),
		registry:  logger.NewRegistry(logger.WithDiagnostics(zerolog.Nop())),
		collector: analytics.NewCollector(),
		sink:      destination.NewMemory("memory", 10),
	}
	t.Cleanup(func() { f.registry.ShutdownAll(context.Background()) })

	cfg := logger.NewBuilder().
		Destinations(f.sink, analytics.NewDestination(f.collector)).
		FlushInterval(0).
		Build()
	f.registry.GetInstance("payments", "1.2.0", &cfg)
	f.registry.GetInstance("analytics", "0.9.0", &cfg)

	if opts.Collector == nil {
		opts.Collector = f.collector
	}
	NewHandlers(f.registry, opts).Register(f.e)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, header ...string) (*httptest.ResponseRecorder, DebugResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	var resp DebugResponse
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestListLoggers(t *testing.T) {
	f := newFixture(t, Options{})

	rec, resp := f.do(t, http.MethodGet, "/_logbricks/loggers", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resp.Error)
	assert.NotEmpty(t, resp.Duration)
	list, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, "analytics:0.9.0", list[0].(map[string]any)["key"])
	assert.Equal(t, "payments:1.2.0", list[1].(map[string]any)["key"])
}

func TestGetLogger(t *testing.T) {
	f := newFixture(t, Options{})

	rec, resp := f.do(t, http.MethodGet, "/_logbricks/loggers/payments:1.2.0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "payments", data["sdk_name"])
	assert.Equal(t, []any{"memory", "analytics"}, data["destinations"])

	rec, resp = f.do(t, http.MethodGet, "/_logbricks/loggers/unknown:1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errLoggerNotFound.Error(), resp.Error)
}

func TestFlushLogger(t *testing.T) {
	f := newFixture(t, Options{})

	rec, resp := f.do(t, http.MethodPost, "/_logbricks/loggers/payments:1.2.0/flush", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"flushed": "payments:1.2.0"}, resp.Data)

	l, _ := f.registry.Lookup("payments:1.2.0")
	l.Shutdown(context.Background())
	rec, _ = f.do(t, http.MethodPost, "/_logbricks/loggers/payments:1.2.0/flush", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSetLevel(t *testing.T) {
	f := newFixture(t, Options{})

	rec, resp := f.do(t, http.MethodPut, "/_logbricks/loggers/payments:1.2.0/level", `{"level":"warning"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "WARNING", resp.Data.(map[string]any)["min_level"])

	l, _ := f.registry.Lookup("payments:1.2.0")
	assert.False(t, l.IsLoggable(logger.Info))
	assert.True(t, l.IsLoggable(logger.Error))

	rec, resp = f.do(t, http.MethodPut, "/_logbricks/loggers/payments:1.2.0/level", `{"level":"loud"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Error, "invalid log level")
}

func TestStats(t *testing.T) {
	f := newFixture(t, Options{})
	l, _ := f.registry.Lookup("payments:1.2.0")
	l.Info("Checkout", "paid")
	l.Warning("Checkout", "slow")
	require.Eventually(t, func() bool { return f.collector.Snapshot().Total == 2 }, waitFor, pollEvery)

	rec, resp := f.do(t, http.MethodGet, "/_logbricks/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]any)
	assert.InDelta(t, 2, data["total"], 0)

	rec, resp = f.do(t, http.MethodDelete, "/_logbricks/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0, resp.Data.(map[string]any)["total"], 0)
}

func TestStatsWithoutCollector(t *testing.T) {
	e := echo.New()
	NewHandlers(logger.NewRegistry(), Options{Prefix: "/debug"}).Register(e)

	req := httptest.NewRequest(http.MethodGet, "/debug/stats", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), errNoAnalytics.Error())
}

func TestAuthMiddleware(t *testing.T) {
	f := newFixture(t, Options{Token: testToken})

	tests := []struct {
		name       string
		authHeader string
		want       int
	}{
		{"valid bearer token", "Bearer " + testToken, http.StatusOK},
		{"invalid bearer token", "Bearer wrong-token", http.StatusUnauthorized},
		{"missing bearer prefix", testToken, http.StatusUnauthorized},
		{"empty authorization header", "", http.StatusUnauthorized},
		{"case sensitive bearer", "bearer " + testToken, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := f.do(t, http.MethodGet, "/_logbricks/loggers", "", "Authorization", tt.authHeader)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuthMiddlewareLogsWrongToken(t *testing.T) {
	var buf bytes.Buffer
	f := newFixture(t, Options{Token: testToken, Log: zerolog.New(&buf)})

	rec, _ := f.do(t, http.MethodGet, "/_logbricks/stats", "", "Authorization", "Bearer wrong-token")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, buf.String(), "rejected logger debug request")
	assert.Contains(t, buf.String(), `"route":"/_logbricks/stats"`)

	buf.Reset()
	rec, _ = f.do(t, http.MethodGet, "/_logbricks/stats", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, buf.String(), "a missing token is not logged")
}

func TestTracingMiddleware(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	f := newFixture(t, Options{ServiceName: "logbricks-debug", TracerProvider: tp})

	rec, _ := f.do(t, http.MethodGet, "/_logbricks/loggers", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Name(), "/_logbricks/loggers")
}

func TestOptionsFromSettings(t *testing.T) {
	opts := OptionsFromSettings(config.DebugSettings{Enabled: true, Prefix: "/ops", Token: "t"})
	assert.Equal(t, "/ops", opts.Prefix)
	assert.Equal(t, "t", opts.Token)

	h := NewHandlers(logger.NewRegistry(), Options{})
	assert.Equal(t, DefaultPrefix, h.opts.Prefix)
}

func TestRegisterFromSettings(t *testing.T) {
	registry := logger.NewRegistry(logger.WithDiagnostics(zerolog.Nop()))
	t.Cleanup(func() { registry.ShutdownAll(context.Background()) })
	cfg := logger.NewBuilder().Destinations().FlushInterval(0).Build()
	registry.GetInstance("payments", "1.2.0", &cfg)

	tests := []struct {
		name     string
		settings config.DebugSettings
		mounted  bool
		path     string
		want     int
	}{
		{"disabled", config.DebugSettings{Enabled: false, Prefix: "/ops"}, false, "/ops/loggers", http.StatusNotFound},
		{"enabled", config.DebugSettings{Enabled: true, Prefix: "/ops"}, true, "/ops/loggers", http.StatusOK},
		{"enabled with token", config.DebugSettings{Enabled: true, Prefix: "/ops", Token: testToken}, true, "/ops/loggers", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			assert.Equal(t, tt.mounted, RegisterFromSettings(e, registry, tt.settings, analytics.NewCollector()))

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
