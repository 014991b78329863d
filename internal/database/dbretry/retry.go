package dbretry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openshelf/reputation/internal/database/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	maxElapsedTime  = 30 * time.Second
	initialInterval = 500 * time.Millisecond
	maxInterval     = 5 * time.Second
	maxRetries      = uint64(5)
)

// retryableCodes lists PostgreSQL SQLSTATE codes worth retrying.
var retryableCodes = map[string]struct{}{ //nolint:gochecknoglobals // -
	"08000": {}, // connection_exception
	"08003": {}, // connection_does_not_exist
	"08006": {}, // connection_failure
	"08001": {}, // sqlclient_unable_to_establish_sqlconnection
	"08004": {}, // sqlserver_rejected_establishment_of_sqlconnection
	"08007": {}, // transaction_resolution_unknown
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"53000": {}, // insufficient_resources
	"53300": {}, // too_many_connections
	"57P01": {}, // admin_shutdown
	"57P02": {}, // crash_shutdown
	"57P03": {}, // cannot_connect_now
	"55P03": {}, // lock_not_available
}

// IsRetryableError checks if the given error is retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// A cancelled caller will not be helped by another attempt
	if errors.Is(err, context.Canceled) {
		return false
	}

	var pgerr pgdriver.Error
	if errors.As(err, &pgerr) {
		_, ok := retryableCodes[pgerr.Field('C')]
		return ok
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Check for common network error strings
	errMsg := err.Error()

	return strings.Contains(errMsg, "connection reset by peer") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no connection") ||
		strings.Contains(errMsg, "i/o timeout") ||
		strings.Contains(errMsg, "EOF")
}

// Operation wraps a database operation with retry logic. When every attempt
// failed with a retryable error the result is a *types.TransientStorageError.
func Operation[T any](ctx context.Context, op string, operation func(context.Context) (T, error)) (T, error) {
	var result T

	err := NoResult(ctx, op, func(ctx context.Context) error {
		var err error
		result, err = operation(ctx)
		return err
	})

	return result, err
}

// NoResult wraps a database operation that doesn't return a result.
func NoResult(ctx context.Context, op string, operation func(context.Context) error) error {
	var lastErr error

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(maxElapsedTime),
		backoff.WithInitialInterval(initialInterval),
		backoff.WithMaxInterval(maxInterval),
	), maxRetries)

	err := backoff.Retry(func() error {
		err := operation(ctx)
		if err != nil {
			if !IsRetryableError(err) {
				return backoff.Permanent(err)
			}

			lastErr = err

			return err
		}

		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		if lastErr != nil && IsRetryableError(err) {
			return &types.TransientStorageError{Op: op, Err: lastErr}
		}

		return err
	}

	return nil
}

// Transaction wraps a database transaction with retry logic.
func Transaction(ctx context.Context, db bun.IDB, op string, fn func(context.Context, bun.Tx) error) error {
	return NoResult(ctx, op, func(ctx context.Context) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return fn(ctx, tx)
		})
	})
}

// Wrap adds operation context to a failed storage call.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}
