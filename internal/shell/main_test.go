package shell

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// os/signal keeps its dispatch goroutine once Notify has been used
		goleak.IgnoreAnyFunction("os/signal.loop"),
		goleak.IgnoreTopFunction("os/signal.signal_recv"),
	)
}
