package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"trafficsigns/logging"
)

// SetupHandler returns a context that is cancelled on SIGINT or SIGTERM, so
// long runs stop between samples instead of exiting inside a C call. A second
// signal exits immediately. The returned stop function releases the handler.
func SetupHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	// Create a channel to receive OS signals
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	stopped := make(chan struct{})

	go func() {
		select {
		case sig := <-sigChan:
			logging.LogWarning("Received %v, stopping after the current sample", sig)
			cancel()
		case <-stopped:
			return
		}

		select {
		case <-sigChan:
			os.Exit(1)
		case <-stopped:
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(stopped)
			cancel()
		})
	}
	return ctx, stop
}
