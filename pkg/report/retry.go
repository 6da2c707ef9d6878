package report

import (
	"context"
	"net"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/matzehuels/visualtest/pkg/errors"
)

// Store writes are retried this many times on transient failures, with
// the delay doubling after each attempt.
const (
	storeAttempts   = 3
	storeRetryDelay = 50 * time.Millisecond
)

// transientError marks a store failure worth retrying: timeouts and
// dropped connections, not rejected documents.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// retry calls fn up to attempts times. Only errors wrapped in
// transientError are retried; the last error is returned unwrapped.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		var te *transientError
		if !errors.As(err, &te) {
			return err
		}
		lastErr = te.err

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// classify wraps network-level failures in transientError.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ne net.Error
	if errors.As(err, &ne) || mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return &transientError{err: err}
	}
	return err
}
