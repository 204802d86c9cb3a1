package esclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), false},
		{"too many requests", &HTTPError{StatusCode: http.StatusTooManyRequests}, true},
		{"server error", &HTTPError{StatusCode: http.StatusBadGateway}, true},
		{"not found", &HTTPError{StatusCode: http.StatusNotFound}, false},
		{"transport", errors.New("connection refused"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryPolicyRespectsMaxAttempts(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 3,
		DelayFunc:   func(int, error) time.Duration { return time.Millisecond },
	}
	attempts := 0
	err := policy.Do(context.Background(), func(context.Context, int) error {
		attempts++
		return errors.New("fail")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryPolicySucceedsAfterFailures(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5}
	attempts := 0
	err := policy.Do(context.Background(), func(_ context.Context, attempt int) error {
		attempts = attempt
		if attempt < 3 {
			return errors.New("fail")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryPolicyStopsOnNonRetryable(t *testing.T) {
	policy := NewRetryPolicy(4)
	attempts := 0
	_ = policy.Do(context.Background(), func(context.Context, int) error {
		attempts++
		return &HTTPError{StatusCode: http.StatusConflict}
	})
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetryPolicyStopsWhenContextDone(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 10,
		DelayFunc:   func(int, error) time.Duration { return time.Hour },
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	attempts := 0
	start := time.Now()
	err := policy.Do(ctx, func(context.Context, int) error {
		attempts++
		return errors.New("fail")
	})
	if err == nil || err.Error() != "fail" {
		t.Fatalf("Do() error = %v, want last attempt error", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if time.Since(start) > time.Second {
		t.Error("Do() did not stop on context cancellation")
	}
}

func TestNewRetryPolicyBackoff(t *testing.T) {
	policy := NewRetryPolicy(10)
	if policy.MaxAttempts != 11 {
		t.Fatalf("MaxAttempts = %d, want 11", policy.MaxAttempts)
	}
	for attempt, base := range map[int]time.Duration{
		1:  baseRetryDelay,
		2:  2 * baseRetryDelay,
		3:  4 * baseRetryDelay,
		20: maxRetryDelay,
	} {
		got := policy.DelayFunc(attempt, nil)
		if got < base || got >= base+base/2+1 {
			t.Errorf("DelayFunc(%d) = %s, want within [%s, %s)", attempt, got, base, base+base/2)
		}
	}
	if NewRetryPolicy(-1).MaxAttempts != 1 {
		t.Error("negative retries must yield a single attempt")
	}
}
