package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

var errInterrupted = errors.New("interrupted by signal")

// withSignalCancel returns a context that is cancelled when SIGINT or
// SIGTERM arrives. The hasher then stops every worker and discards the
// partial result. Call the returned stop function to release the handler.
func withSignalCancel(parent context.Context, stderr io.Writer) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			fmt.Fprintf(stderr, "\nReceived signal: %v\n", sig)
			fmt.Fprintf(stderr, "Initiating graceful shutdown...\n")
			cancel(fmt.Errorf("%w: %v", errInterrupted, sig))
		case <-ctx.Done():
		}
	}()

	return ctx, func() { cancel(nil) }
}
