package logger

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry() Entry {
	return Entry{
		ID:          "0b9d3f7e",
		Timestamp:   time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC),
		Level:       Warning,
		Tag:         "Network",
		Message:     "request retried",
		Err:         errors.New("timeout"),
		Metadata:    map[string]any{"attempt": 2, "endpoint": "/pay"},
		SDKName:     testSDK,
		SDKVersion:  testVersion,
		GoroutineID: 17,
		Source: &SourceLocation{
			File:     "/src/github.com/acme/payments/client.go",
			Function: "github.com/acme/payments.(*Client).Send",
			Line:     42,
		},
	}
}

func TestTextFormatter(t *testing.T) {
	line := TextFormatter{UTC: true}.Format(sampleEntry())

	assert.Equal(t,
		"2025-03-14 09:26:53.589 W/Network [payments@1.2.0] request retried {attempt=2, endpoint=/pay} | timeout (client.go:42 payments.(*Client).Send)",
		line)
}

func TestTextFormatterMinimalEntry(t *testing.T) {
	e := Entry{Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), Level: Info, Tag: "T", Message: "m"}
	line := TextFormatter{TimeLayout: time.RFC3339, UTC: true}.Format(e)
	assert.Equal(t, "2025-01-02T03:04:05Z I/T m", line)
}

func TestJSONFormatter(t *testing.T) {
	line := JSONFormatter{}.Format(sampleEntry())
	assert.NotContains(t, line, "\n")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))

	assert.Equal(t, "0b9d3f7e", decoded["id"])
	assert.Equal(t, "WARNING", decoded["level"])
	assert.Equal(t, "Network", decoded["tag"])
	assert.Equal(t, "request retried", decoded["message"])
	assert.Equal(t, "timeout", decoded["error"])
	assert.Equal(t, testSDK, decoded["sdk"])
	assert.Equal(t, testVersion, decoded["sdk_version"])
	assert.InDelta(t, float64(sampleEntry().TimestampMillis()), decoded["timestamp"], 0)

	md, ok := decoded["metadata"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 2, md["attempt"], 0)

	src, ok := decoded["source"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 42, src["line"], 0)
}

func TestFormatterFunc(t *testing.T) {
	f := FormatterFunc(func(e Entry) string { return e.Tag + ":" + e.Message })
	assert.Equal(t, "a:b", f.Format(Entry{Tag: "a", Message: "b"}))
}
