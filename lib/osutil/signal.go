package osutil

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SignalContext returns a context canceled on SIGINT or SIGTERM. The
// first signal cancels so the target in flight can wind down and the
// ledger stays consistent; a second signal exits immediately.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		slog.Info("shutting down after the current target", "signal", s.String())
		cancel()
		<-sigs
		os.Exit(1)
	}()

	return ctx
}
