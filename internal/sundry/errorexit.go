package sundry

import (
	"context"
	"log/slog"
	"os"
)

var exit = os.Exit

// OnErrorExit logs the error and exits with status 1.
// It does nothing if err is nil.
func OnErrorExit(ctx context.Context, err error, msg string) {
	if err != nil {
		slog.ErrorContext(ctx, msg, "error", err)
		exit(1)
	}
}
