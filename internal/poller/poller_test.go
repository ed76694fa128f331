package poller_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"scribeq/internal/poller"
	"scribeq/internal/services/lingo"
)

func TestPollResolvesAfterPendingCycles(t *testing.T) {
	responses := []lingo.OperationResult{
		{Status: lingo.StatusPending},
		{Status: lingo.StatusPending},
		{Status: lingo.StatusCompleted, Content: "transcript", Cost: 1.5},
	}
	calls := 0
	check := func(ctx context.Context, correlationID string) (lingo.OperationResult, error) {
		if correlationID != "op-1" {
			t.Fatalf("unexpected correlation id %q", correlationID)
		}
		result := responses[calls]
		calls++
		return result, nil
	}

	var cycles int
	result, err := poller.Poll(context.Background(), "op-1", check, poller.Options{
		Interval: time.Millisecond,
		Timeout:  time.Second,
		OnCycle:  func(time.Duration) { cycles++ },
	})
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 checks, got %d", calls)
	}
	if cycles != 3 {
		t.Fatalf("expected OnCycle per check, got %d", cycles)
	}
	if result.Content != "transcript" || result.Cost != 1.5 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestPollRemoteError(t *testing.T) {
	check := func(context.Context, string) (lingo.OperationResult, error) {
		return lingo.OperationResult{Status: lingo.StatusError, Errors: []string{"bad audio"}}, nil
	}
	_, err := poller.Poll(context.Background(), "op-2", check, poller.Options{Interval: time.Millisecond})
	var remote *poller.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Status != lingo.StatusError {
		t.Fatalf("unexpected status %q", remote.Status)
	}
}

func TestPollProviderTimeoutStatus(t *testing.T) {
	check := func(context.Context, string) (lingo.OperationResult, error) {
		return lingo.OperationResult{Status: lingo.StatusTimeout}, nil
	}
	_, err := poller.Poll(context.Background(), "op-3", check, poller.Options{Interval: time.Millisecond})
	var remote *poller.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError for provider timeout, got %v", err)
	}
}

func TestPollClientTimeout(t *testing.T) {
	check := func(context.Context, string) (lingo.OperationResult, error) {
		return lingo.OperationResult{Status: lingo.StatusPending}, nil
	}
	_, err := poller.Poll(context.Background(), "op-4", check, poller.Options{
		Interval: time.Millisecond,
		Timeout:  5 * time.Millisecond,
	})
	var timeout *poller.TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if timeout.CorrelationID != "op-4" {
		t.Fatalf("unexpected correlation id %q", timeout.CorrelationID)
	}
}

func TestPollCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	check := func(context.Context, string) (lingo.OperationResult, error) {
		cancel()
		return lingo.OperationResult{Status: lingo.StatusPending}, nil
	}
	_, err := poller.Poll(ctx, "op-5", check, poller.Options{Interval: time.Minute, Timeout: time.Hour})
	if !errors.Is(err, poller.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestPollValidation(t *testing.T) {
	check := func(context.Context, string) (lingo.OperationResult, error) {
		return lingo.OperationResult{Status: lingo.StatusCompleted}, nil
	}
	if _, err := poller.Poll(context.Background(), "  ", check, poller.Options{}); err == nil {
		t.Fatal("expected error for missing correlation id")
	}
	if _, err := poller.Poll(context.Background(), "op-6", nil, poller.Options{}); err == nil {
		t.Fatal("expected error for missing check function")
	}
}

func TestPollCheckErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	check := func(context.Context, string) (lingo.OperationResult, error) {
		return lingo.OperationResult{}, boom
	}
	_, err := poller.Poll(context.Background(), "op-7", check, poller.Options{Interval: time.Millisecond})
	if !errors.Is(err, boom) {
		t.Fatalf("expected check error, got %v", err)
	}
}
