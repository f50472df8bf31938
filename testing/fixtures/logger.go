package fixtures

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"github.com/gaborage/logbricks/logger"
	"github.com/gaborage/logbricks/testing/mocks"
)

// NewWorkingDestination creates a mock destination that accepts every operation.
// This is useful for testing happy path scenarios.
func NewWorkingDestination(name string) *mocks.MockDestination {
	d := mocks.NewMockDestination(name)
	d.ExpectWriteAny(nil)
	d.ExpectFlushAny(nil)
	d.On("Close", mock.Anything).Return(nil)
	return d
}

// NewFailingDestination creates a mock destination whose every operation returns err.
func NewFailingDestination(name string, err error) *mocks.MockDestination {
	d := mocks.NewMockDestination(name)
	d.ExpectWriteAny(err)
	d.ExpectFlushAny(err)
	d.On("Close", mock.Anything).Return(err)
	return d
}

// NewDroppingInterceptor creates a mock interceptor that vetoes every entry.
func NewDroppingInterceptor() *mocks.MockInterceptor {
	ic := &mocks.MockInterceptor{}
	ic.ExpectDropAll()
	return ic
}

// NewQuietLogger starts a logger over destinations with a silenced diagnostics channel and
// shuts it down when the test ends.
func NewQuietLogger(t testing.TB, name, version string, destinations ...logger.Destination) *logger.Logger {
	t.Helper()
	cfg := logger.NewBuilder().Destinations(destinations...).FlushInterval(0).Build()
	l := logger.New(name, version, cfg, logger.WithDiagnostics(zerolog.Nop()))
	t.Cleanup(func() { l.Shutdown(context.Background()) })
	return l
}
