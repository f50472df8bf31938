package testing

import "time"

// SDK identity used across logger tests.
const (
	TestSDKName    = "test-sdk"
	TestSDKVersion = "1.0.0"
	TestTag        = "Test"
	TestMessage    = "test message"
)

// Time Duration Constants
// Common time durations used in test synchronization and timeouts.
const (
	// TestWaitTimeout bounds Eventually-style polling.
	TestWaitTimeout = 2 * time.Second
	// TestPollInterval is the polling interval paired with TestWaitTimeout.
	TestPollInterval = 5 * time.Millisecond
)
