package poller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"scribeq/internal/services/lingo"
)

const (
	// DefaultInterval is the delay between status checks.
	DefaultInterval = 10 * time.Second
	// DefaultTimeout bounds the total duration of a polling loop.
	DefaultTimeout = 2 * time.Hour
)

// ErrCancelled marks a poll loop ended by user request. It is not a failure
// and must not be surfaced as a generic error.
var ErrCancelled = errors.New("stopped by user")

// TimeoutError reports a poll loop that exceeded its client-side budget.
type TimeoutError struct {
	CorrelationID string
	Elapsed       time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation %s timed out after %s", e.CorrelationID, e.Elapsed.Round(time.Second))
}

// RemoteError reports a terminal failure returned by the provider.
type RemoteError struct {
	CorrelationID string
	Status        lingo.Status
	Messages      []string
}

func (e *RemoteError) Error() string {
	detail := strings.Join(e.Messages, "; ")
	if detail == "" {
		if e.Status == lingo.StatusTimeout {
			detail = "provider reported timeout"
		} else {
			detail = "provider reported failure"
		}
	}
	return fmt.Sprintf("operation %s failed: %s", e.CorrelationID, detail)
}

// CheckFunc performs one status check against the provider.
type CheckFunc func(ctx context.Context, correlationID string) (lingo.OperationResult, error)

// Options configures a polling loop.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	// OnCycle is invoked after every status check with the elapsed run time,
	// letting callers surface progress text. May be nil.
	OnCycle func(elapsed time.Duration)
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Poll repeatedly checks a correlation ID until the operation reaches a
// terminal state. Non-terminal cycles are separated by exactly one interval
// delay; the loop never busy-spins. Cancellation of ctx short-circuits both
// the check and the delay and yields ErrCancelled.
func Poll(ctx context.Context, correlationID string, check CheckFunc, opts Options) (lingo.OperationResult, error) {
	var empty lingo.OperationResult
	correlationID = strings.TrimSpace(correlationID)
	if correlationID == "" {
		return empty, errors.New("poll: correlation id required")
	}
	if check == nil {
		return empty, errors.New("poll: check function required")
	}
	opts = opts.withDefaults()

	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return empty, cancellation(err)
		}

		result, err := check(ctx, correlationID)
		if err != nil {
			if ctx.Err() != nil {
				return empty, cancellation(ctx.Err())
			}
			return empty, err
		}

		elapsed := time.Since(start)
		if opts.OnCycle != nil {
			opts.OnCycle(elapsed)
		}

		switch result.Status {
		case lingo.StatusCompleted:
			return result, nil
		case lingo.StatusError, lingo.StatusTimeout:
			return empty, &RemoteError{
				CorrelationID: correlationID,
				Status:        result.Status,
				Messages:      result.Errors,
			}
		}

		if elapsed >= opts.Timeout {
			return empty, &TimeoutError{CorrelationID: correlationID, Elapsed: elapsed}
		}

		select {
		case <-ctx.Done():
			return empty, cancellation(ctx.Err())
		case <-time.After(opts.Interval):
		}
	}
}

func cancellation(err error) error {
	if errors.Is(err, context.Canceled) {
		return ErrCancelled
	}
	return err
}
