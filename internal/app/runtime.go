package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

// testModeEnv makes the binaries exit before touching the network.
const testModeEnv = "ZEPTO_TEST_MODE"

var testMode atomic.Pointer[bool]

// InTestMode reports whether ZEPTO_TEST_MODE is set to a true value.
func InTestMode() bool {
	if v := testMode.Load(); v != nil {
		return *v
	}
	RefreshTestMode()
	return *testMode.Load()
}

// RefreshTestMode re-reads ZEPTO_TEST_MODE after environment changes.
func RefreshTestMode() {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(&on)
}
