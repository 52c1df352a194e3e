package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domerrors "github.com/garyellow/medreminder-linebot-go/internal/errors"
)

// slowOperation is the threshold above which a store call is logged.
const slowOperation = 100 * time.Millisecond

// observe records metrics for one store call and converts backend failures
// into StoreErrors. ErrNotFound passes through untouched.
func observe(ctx context.Context, recorder MetricsRecorder, backend, op string, start time.Time, err error) error {
	duration := time.Since(start)

	status := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	default:
		status = "error"
	}

	if recorder != nil {
		recorder.RecordStoreOp(op, status, duration.Seconds())
	}

	if duration > slowOperation {
		slog.WarnContext(ctx, "slow database operation",
			"backend", backend,
			"operation", op,
			"duration_ms", duration.Milliseconds())
	}

	if status != "error" {
		return err
	}

	slog.ErrorContext(ctx, "store operation failed",
		"backend", backend,
		"operation", op,
		"error", err)
	return domerrors.NewStoreError(backend, op, err)
}
