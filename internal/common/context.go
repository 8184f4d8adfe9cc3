package common

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithInterrupt returns a context cancelled on SIGINT or SIGTERM. Call stop
// to release the signal handler.
func WithInterrupt(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
