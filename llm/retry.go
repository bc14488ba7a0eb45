package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"

	"github.com/vinayprograms/toolrouter/errors"
)

// Retry configuration defaults
const (
	defaultMaxRetries  = 5
	defaultInitBackoff = 1 * time.Second
	defaultMaxBackoff  = 60 * time.Second
	backoffFactor      = 2.0
)

// effective returns retry settings with defaults applied.
func (r RetryConfig) effective() (maxRetries int, initBackoff, maxBackoff time.Duration) {
	maxRetries = r.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	initBackoff = r.InitBackoff
	if initBackoff <= 0 {
		initBackoff = defaultInitBackoff
	}
	maxBackoff = r.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	return
}

// withRetry runs call until it succeeds, hits a non-retryable error, or
// exhausts the retry budget. Backoff waits honour ctx.
func withRetry(ctx context.Context, cfg RetryConfig, provider string, call func() error) error {
	maxRetries, wait, maxBackoff := cfg.effective()
	aborted := func() error {
		return errors.Wrap(ctx.Err(), provider+" request aborted", errors.WithProvider(provider))
	}

	for attempt := 0; ; attempt++ {
		err := call()
		switch {
		case err == nil:
			return nil
		case isBillingError(err):
			return errors.WrapWithCode(err, errors.ErrCodeQuotaExceeded, provider+" rejected the account",
				errors.WithProvider(provider), errors.WithRetryable(false))
		case ctx.Err() != nil:
			return aborted()
		case !isRetryableError(err):
			return classifyError(err, provider+" request failed", provider)
		case attempt == maxRetries:
			return classifyError(err, fmt.Sprintf("%s request failed after %d retries", provider, maxRetries), provider)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return aborted()
		case <-timer.C:
		}
		wait = min(time.Duration(float64(wait)*backoffFactor), maxBackoff)
	}
}

// classifyError maps a provider error onto the error taxonomy.
func classifyError(err error, message, provider string) *errors.Error {
	code, opts := errors.ErrCodeNetworkErr, []errors.Option{errors.WithProvider(provider)}
	switch {
	case isRateLimitError(err):
		code = errors.ErrCodeRateLimit
	case isServerError(err):
		code = errors.ErrCodeUnavailable
	case isAuthError(err):
		code = errors.ErrCodeUnauthorized
	default:
		opts = append(opts, errors.WithRetryable(false))
	}
	return errors.WrapWithCode(err, code, message, opts...)
}

// httpStatus extracts the HTTP status from SDK errors, or 0.
func httpStatus(err error) int {
	var oe *openai.Error
	if stderrors.As(err, &oe) {
		return oe.StatusCode
	}
	var ae *anthropic.Error
	if stderrors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

// Substrings matched against error text when the SDK gives no status.
var (
	throttleMarkers = []string{"rate limit", "too many requests", "429", "overloaded", "capacity"}
	serverMarkers   = []string{
		"500", "502", "503", "504",
		"internal server error", "bad gateway", "service unavailable",
		"gateway timeout", "temporarily unavailable",
	}
	authMarkers    = []string{"401", "unauthorized", "invalid api key", "api key not valid"}
	billingMarkers = []string{"billing", "payment", "credits", "quota exceeded", "insufficient", "subscription", "expired"}
)

func mentions(err error, markers []string) bool {
	text := strings.ToLower(err.Error())
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// isRateLimitError reports provider throttling. 529 is Anthropic's
// overloaded status.
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if status := httpStatus(err); status != 0 {
		return status == http.StatusTooManyRequests || status == 529
	}
	return mentions(err, throttleMarkers)
}

// isServerError reports a transient 5xx.
func isServerError(err error) bool {
	if err == nil {
		return false
	}
	if status := httpStatus(err); status != 0 {
		return status >= 500 && status != 529
	}
	return mentions(err, serverMarkers)
}

func isAuthError(err error) bool {
	if status := httpStatus(err); status != 0 {
		return status == http.StatusUnauthorized || status == http.StatusForbidden
	}
	return mentions(err, authMarkers)
}

func isRetryableError(err error) bool {
	return isRateLimitError(err) || isServerError(err)
}

// isBillingError reports payment or quota failures. These never retry.
func isBillingError(err error) bool {
	if err == nil {
		return false
	}
	if httpStatus(err) == http.StatusPaymentRequired {
		return true
	}
	return mentions(err, billingMarkers)
}
