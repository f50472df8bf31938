package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/gaborage/logbricks/logger"
)

// MockDestination provides a testify-based mock implementation of logger.Destination.
// Written entries are also recorded so tests can inspect them without argument matchers.
//
// Example usage:
//
//	sink := mocks.NewMockDestination("sink")
//	sink.ExpectWriteAny(nil)
//	sink.On("Close", mock.Anything).Return(nil).Once()
type MockDestination struct {
	mock.Mock

	name    string
	mu      sync.Mutex
	entries []logger.Entry
}

var _ logger.Destination = (*MockDestination)(nil)

func NewMockDestination(name string) *MockDestination {
	return &MockDestination{name: name}
}

// Name implements logger.Destination. It is not mocked so the logger can call it freely.
func (m *MockDestination) Name() string {
	return m.name
}

// Write implements logger.Destination
func (m *MockDestination) Write(ctx context.Context, e logger.Entry) error {
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()

	arguments := m.Called(ctx, e)
	return arguments.Error(0)
}

// Flush implements logger.Destination
func (m *MockDestination) Flush(ctx context.Context) error {
	arguments := m.Called(ctx)
	return arguments.Error(0)
}

// Close implements logger.Destination
func (m *MockDestination) Close(ctx context.Context) error {
	arguments := m.Called(ctx)
	return arguments.Error(0)
}

// Entries returns every entry passed to Write, in order.
func (m *MockDestination) Entries() []logger.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]logger.Entry(nil), m.entries...)
}

// ExpectWriteAny accepts any number of writes, returning err.
func (m *MockDestination) ExpectWriteAny(err error) *mock.Call {
	return m.On("Write", mock.Anything, mock.Anything).Return(err)
}

// ExpectFlushAny accepts any number of flushes, returning err.
func (m *MockDestination) ExpectFlushAny(err error) *mock.Call {
	return m.On("Flush", mock.Anything).Return(err)
}

// ExpectClose expects exactly one Close, returning err.
func (m *MockDestination) ExpectClose(err error) *mock.Call {
	return m.On("Close", mock.Anything).Return(err).Once()
}
