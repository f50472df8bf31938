package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gaborage/logbricks/logger"
)

// MockInterceptor provides a testify-based mock implementation of logger.Interceptor.
//
// Example usage:
//
//	ic := &mocks.MockInterceptor{}
//	ic.ExpectPassThrough()
//	ic.On("Intercept", mock.Anything, mock.MatchedBy(func(e logger.Entry) bool {
//		return e.Tag == "Noise"
//	})).Return(logger.Entry{}, logger.ErrDrop)
type MockInterceptor struct {
	mock.Mock
}

var _ logger.Interceptor = (*MockInterceptor)(nil)

// Intercept implements logger.Interceptor. A func(logger.Entry) logger.Entry return value is
// applied to the incoming entry; nil leaves the entry unchanged.
func (m *MockInterceptor) Intercept(ctx context.Context, e logger.Entry) (logger.Entry, error) {
	arguments := m.Called(ctx, e)

	var out logger.Entry
	switch v := arguments.Get(0).(type) {
	case logger.Entry:
		out = v
	case func(logger.Entry) logger.Entry:
		out = v(e)
	default:
		out = e
	}
	return out, arguments.Error(1)
}

// ExpectPassThrough returns every entry unchanged.
func (m *MockInterceptor) ExpectPassThrough() *mock.Call {
	return m.On("Intercept", mock.Anything, mock.Anything).Return(func(e logger.Entry) logger.Entry { return e }, nil)
}

// ExpectDropAll vetoes every entry.
func (m *MockInterceptor) ExpectDropAll() *mock.Call {
	return m.On("Intercept", mock.Anything, mock.Anything).Return(nil, logger.ErrDrop)
}
