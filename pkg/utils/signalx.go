package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithSignal returns a context cancelled on SIGTERM or SIGINT.
func WithSignal(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		signalCh := make(chan os.Signal, 1)
		signal.Notify(signalCh, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(signalCh)
		select {
		case sig := <-signalCh:
			logger.Warnf("received signal %s", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
