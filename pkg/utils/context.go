package utils

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SleepContext waits for the duration or until ctx ends. It reports whether
// the full duration elapsed. A non-positive duration returns immediately.
func SleepContext(ctx context.Context, duration time.Duration) bool {
	if duration <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// SleepContextWithLog is SleepContext that logs cancelMessage when ctx ends first.
func SleepContextWithLog(ctx context.Context, duration time.Duration, logger *zap.Logger, cancelMessage string) bool {
	if SleepContext(ctx, duration) {
		return true
	}

	if logger != nil && cancelMessage != "" {
		logger.Info(cancelMessage)
	}

	return false
}
