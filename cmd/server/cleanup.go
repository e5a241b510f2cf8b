package main

import (
	"context"
	"io"
	"log/slog"
)

// shutdowner is the part of the health server the cleanup hook needs.
type shutdowner interface {
	Shutdown(context.Context) error
}

// newCleanup builds the final shutdown hook: the health endpoint reports
// NOT_SERVING and stops before the store it describes is closed.
func newCleanup(ctx context.Context, healthServer shutdowner, store io.Closer) func() {
	return func() {
		if healthServer != nil {
			if err := healthServer.Shutdown(ctx); err != nil {
				slog.ErrorContext(ctx, "failed to shut down gRPC health server", slog.String("error", err.Error()))
			}
		}
		closeStore(store)
	}
}

func closeStore(store io.Closer) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}
}
