package resolver

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures no goroutines leak across the resolver package's tests,
// since FileResolver's LRU eviction callback and metrics flush run on the
// caller's goroutine but are easy to get wrong during refactors.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}
