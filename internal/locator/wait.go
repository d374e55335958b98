package locator

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultInterval is used when a chain or caller does not set a poll interval.
const DefaultInterval = 250 * time.Millisecond

// ErrTimeout is returned by Poll when the condition never held.
var ErrTimeout = errors.New("wait timed out")

// Poll runs check until it reports done, the timeout elapses or ctx ends.
// check always runs at least once, so a zero timeout means a single check.
// Probe errors are treated as "not yet" and surface only when the wait expires.
func Poll(ctx context.Context, timeout, interval time.Duration, check func(context.Context) (bool, error)) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	deadline := time.Now().Add(timeout)

	var lastErr error
	for {
		done, err := check(ctx)
		if err == nil && done {
			return nil
		}
		if err != nil {
			lastErr = err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			if lastErr != nil {
				return fmt.Errorf("%w after %s: %v", ErrTimeout, timeout, lastErr)
			}
			return fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}

		timer := time.NewTimer(min(interval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
