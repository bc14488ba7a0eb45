package llm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/vinayprograms/toolrouter/errors"
)

func TestRetryConfig_Effective(t *testing.T) {
	maxRetries, initBackoff, maxBackoff := RetryConfig{}.effective()
	if maxRetries != defaultMaxRetries || initBackoff != defaultInitBackoff || maxBackoff != defaultMaxBackoff {
		t.Errorf("defaults = %d/%v/%v", maxRetries, initBackoff, maxBackoff)
	}

	maxRetries, initBackoff, maxBackoff = RetryConfig{MaxRetries: 3, InitBackoff: 2 * time.Second, MaxBackoff: 30 * time.Second}.effective()
	if maxRetries != 3 || initBackoff != 2*time.Second || maxBackoff != 30*time.Second {
		t.Errorf("explicit = %d/%v/%v", maxRetries, initBackoff, maxBackoff)
	}
}

func TestErrorHeuristics(t *testing.T) {
	tests := []struct {
		msg       string
		rateLimit bool
		server    bool
		billing   bool
	}{
		{"rate limit exceeded", true, false, false},
		{"HTTP 429 Too Many Requests", true, false, false},
		{"model overloaded", true, false, false},
		{"503 service unavailable", false, true, false},
		{"bad gateway", false, true, false},
		{"insufficient credits", false, false, true},
		{"billing hard limit reached", false, false, true},
		{"invalid request", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := fmt.Errorf("%s", tt.msg)
			if got := isRateLimitError(err); got != tt.rateLimit {
				t.Errorf("isRateLimitError = %v", got)
			}
			if got := isServerError(err); got != tt.server {
				t.Errorf("isServerError = %v", got)
			}
			if got := isBillingError(err); got != tt.billing {
				t.Errorf("isBillingError = %v", got)
			}
			if got := isRetryableError(err); got != (tt.rateLimit || tt.server) {
				t.Errorf("isRetryableError = %v", got)
			}
		})
	}
	if isRateLimitError(nil) || isServerError(nil) || isBillingError(nil) {
		t.Error("nil must not match")
	}
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 2, InitBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestWithRetry_RecoversFromTransient(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastRetry(), "test", func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("503 service unavailable")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_GivesUp(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastRetry(), "test", func() error {
		calls++
		return fmt.Errorf("rate limit exceeded")
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (1 + 2 retries)", calls)
	}
	if !errors.Is(err, errors.ErrCodeRateLimit) {
		t.Errorf("Code = %v, want RATE_LIMITED", errors.Code(err))
	}
	if errors.GetMetadata(err)["provider"] != "test" {
		t.Error("provider metadata missing")
	}
}

func TestWithRetry_FatalErrors(t *testing.T) {
	tests := []struct {
		msg  string
		code errors.ErrorCode
	}{
		{"payment required: insufficient credits", errors.ErrCodeQuotaExceeded},
		{"invalid api key", errors.ErrCodeUnauthorized},
		{"malformed request", errors.ErrCodeNetworkErr},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			calls := 0
			err := withRetry(context.Background(), fastRetry(), "test", func() error {
				calls++
				return fmt.Errorf("%s", tt.msg)
			})
			if calls != 1 {
				t.Errorf("calls = %d, want 1", calls)
			}
			if errors.Code(err) != tt.code {
				t.Errorf("Code = %v, want %v", errors.Code(err), tt.code)
			}
			if errors.IsRetryable(err) {
				t.Error("fatal error reported as retryable")
			}
		})
	}
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, RetryConfig{MaxRetries: 5, InitBackoff: time.Hour}, "test", func() error {
		return fmt.Errorf("503 service unavailable")
	})
	if !errors.Is(err, errors.ErrCodeCanceled) {
		t.Errorf("Code = %v, want CANCELED", errors.Code(err))
	}
}
