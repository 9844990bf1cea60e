package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

const testModeEnv = "BILLING_TEST_MODE"

var testMode atomic.Pointer[bool]

// InTestMode reports whether entrypoints should skip opening databases,
// listeners and workers. It reads BILLING_TEST_MODE on first use.
func InTestMode() bool {
	if v := testMode.Load(); v != nil {
		return *v
	}
	enabled, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.CompareAndSwap(nil, &enabled)
	return *testMode.Load()
}

// RefreshTestMode re-reads BILLING_TEST_MODE after environment changes.
func RefreshTestMode() {
	enabled, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(&enabled)
}
