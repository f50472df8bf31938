package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/logbricks/destination"
	"github.com/gaborage/logbricks/interceptor"
	"github.com/gaborage/logbricks/logger"
)

func TestSettingsBuilderDefaults(t *testing.T) {
	s, err := Load(environ())
	require.NoError(t, err)

	b, err := s.Builder()
	require.NoError(t, err)
	cfg := b.Build()

	assert.Equal(t, logger.Verbose, cfg.MinLevel())
	assert.Equal(t, []string{"console"}, cfg.DestinationNames())
	require.Len(t, cfg.Interceptors(), 1)
	assert.IsType(t, &interceptor.Redactor{}, cfg.Interceptors()[0])
	assert.IsType(t, logger.TextFormatter{}, cfg.Formatter())
}

func TestSettingsBuilderFullWiring(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(environ(
		"LOGBRICKS_LEVEL=info",
		"LOGBRICKS_FORMAT=json",
		"LOGBRICKS_ASYNC=false",
		"LOGBRICKS_CONSOLE_STREAM=stderr",
		"LOGBRICKS_FILE_ENABLED=true",
		"LOGBRICKS_FILE_DIR="+dir,
		"LOGBRICKS_FILE_MAXSIZE=2048",
		"LOGBRICKS_RATELIMIT_ENABLED=true",
		"LOGBRICKS_RATELIMIT_RATE=10",
		"LOGBRICKS_RATELIMIT_BURST=5",
		"LOGBRICKS_RATELIMIT_EXEMPT=error",
		"LOGBRICKS_TAGS_ALLOW=Payments",
		"LOGBRICKS_TAGS_DENY=Noise",
		"LOGBRICKS_ENRICH_APP=shop",
	))
	require.NoError(t, err)

	b, err := s.Builder()
	require.NoError(t, err)
	cfg := b.Build()

	assert.Equal(t, logger.Info, cfg.MinLevel())
	assert.False(t, cfg.Async())
	assert.IsType(t, logger.JSONFormatter{}, cfg.Formatter())
	assert.Equal(t, int64(2048), cfg.MaxFileSize())
	assert.Equal(t, []string{"console", "file"}, cfg.DestinationNames())
	assert.IsType(t, &destination.File{}, cfg.Destinations()[1])

	ics := cfg.Interceptors()
	require.Len(t, ics, 5)
	assert.IsType(t, &interceptor.TagFilter{}, ics[0])
	assert.IsType(t, &interceptor.TagFilter{}, ics[1])
	assert.IsType(t, &interceptor.RateLimiter{}, ics[2])
	assert.IsType(t, &interceptor.Enricher{}, ics[3])
	assert.IsType(t, &interceptor.Redactor{}, ics[4])
}

func TestSettingsNewLogger(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(environ(
		"LOGBRICKS_SDK_NAME=payments",
		"LOGBRICKS_SDK_VERSION=2.0.0",
		"LOGBRICKS_CONSOLE_ENABLED=false",
		"LOGBRICKS_FILE_ENABLED=true",
		"LOGBRICKS_FILE_DIR="+dir,
		"LOGBRICKS_FILE_NAME=sdk",
		"LOGBRICKS_ENRICH_APP=shop",
		"LOGBRICKS_SHUTDOWN_TIMEOUT=1s",
	))
	require.NoError(t, err)

	l, err := s.NewLogger(logger.WithDiagnostics(zerolog.Nop()))
	require.NoError(t, err)
	assert.Equal(t, "payments", l.Name())
	assert.Equal(t, "2.0.0", l.Version())

	l.Info("Checkout", "paid", map[string]any{"password": "hunter2"})
	l.Shutdown(context.Background())

	data, err := os.ReadFile(filepath.Join(dir, "sdk.log"))
	require.NoError(t, err)
	line := string(data)
	assert.Contains(t, line, "I/Checkout [payments@2.0.0] paid")
	assert.Contains(t, line, "app=shop")
	assert.Contains(t, line, "password=***")
	assert.NotContains(t, line, "hunter2")
}
