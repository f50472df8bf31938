package logger

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryCopiesLeaveOriginalUntouched(t *testing.T) {
	original := Entry{
		ID:       "id-1",
		Level:    Info,
		Tag:      testTag,
		Message:  "original",
		Metadata: map[string]any{"a": 1},
	}

	changed := original.
		WithMessage("changed").
		WithTag("Other").
		WithLevel(Error).
		WithField("b", 2)

	assert.Equal(t, "original", original.Message)
	assert.Equal(t, testTag, original.Tag)
	assert.Equal(t, Info, original.Level)
	assert.Equal(t, map[string]any{"a": 1}, original.Metadata)

	assert.Equal(t, "changed", changed.Message)
	assert.Equal(t, "Other", changed.Tag)
	assert.Equal(t, Error, changed.Level)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, changed.Metadata)
	assert.Equal(t, original.ID, changed.ID)
}

func TestEntryWithMetadataCopiesInput(t *testing.T) {
	md := map[string]any{"k": "v"}
	e := Entry{}.WithMetadata(md)
	md["k"] = "mutated"

	v, ok := e.Field("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	empty := Entry{}.WithMetadata(nil)
	assert.NotNil(t, empty.Metadata)
}

func TestEntryTimestampMillis(t *testing.T) {
	ts := time.UnixMilli(1_700_000_000_123)
	assert.Equal(t, int64(1_700_000_000_123), Entry{Timestamp: ts}.TimestampMillis())
}

func TestCurrentGoroutineIDDiffersAcrossGoroutines(t *testing.T) {
	here := currentGoroutineID()
	require.NotZero(t, here)

	var other uint64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		other = currentGoroutineID()
	}()
	wg.Wait()

	assert.NotZero(t, other)
	assert.NotEqual(t, here, other)
}

func TestCaptureSourceReportsCaller(t *testing.T) {
	loc := captureSource(0)
	require.NotNil(t, loc)
	assert.Contains(t, loc.File, "entry_test.go")
	assert.Contains(t, loc.Function, "TestCaptureSourceReportsCaller")
	assert.Positive(t, loc.Line)
}

func TestNewEntryIDIsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		id := newEntryID()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
