// Package testing provides testing utilities for code built on logbricks.
//
// # Mocks
//
// The mocks subpackage provides testify-based implementations of logger.Destination and
// logger.Interceptor, for asserting what a logger delivers and how it reacts to failing
// sinks or vetoing interceptors.
//
// # Fixtures
//
// The fixtures subpackage provides pre-configured mocks and a quiet logger factory for
// common scenarios (healthy sink, failing sink, dropping interceptor).
//
// # Usage
//
//	import (
//		"github.com/gaborage/logbricks/testing/fixtures"
//		"github.com/gaborage/logbricks/testing/mocks"
//	)
package testing
