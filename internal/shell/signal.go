package shell

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
)

// terminationSignals are forwarded to the active session as a hard kill.
var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// signalBridge kills the active shell when the process receives SIGINT or
// SIGTERM. It lives exactly as long as one Run call.
type signalBridge struct {
	ch      chan os.Signal
	done    chan struct{}
	wg      sync.WaitGroup
	ignored []os.Signal // ignored before install, ignored again on restore
}

// installSignalBridge subscribes to termination signals and calls kill for
// each one received until restore is called.
func installSignalBridge(kill func(os.Signal), logger *zap.Logger) *signalBridge {
	b := &signalBridge{
		ch:   make(chan os.Signal, 1),
		done: make(chan struct{}),
	}
	for _, sig := range terminationSignals {
		if signal.Ignored(sig) {
			b.ignored = append(b.ignored, sig)
		}
	}
	signal.Notify(b.ch, terminationSignals...)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case sig := <-b.ch:
				logger.Warn("received termination signal, killing shell", zap.String("signal", sig.String()))
				kill(sig)
			case <-b.done:
				return
			}
		}
	}()
	return b
}

// restore unsubscribes from the signals and waits for the bridge goroutine.
// Stop alone falls back to the default disposition, so signals that were
// ignored before install are ignored again.
func (b *signalBridge) restore() {
	signal.Stop(b.ch)
	if len(b.ignored) > 0 {
		signal.Ignore(b.ignored...)
	}
	close(b.done)
	b.wg.Wait()
}
