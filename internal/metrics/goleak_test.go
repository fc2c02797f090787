package metrics

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures no goroutines leak across the metrics package's tests,
// since Sink.Flush writes to disk and a future async-flush change could
// easily leave a writer goroutine running past the test.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}
