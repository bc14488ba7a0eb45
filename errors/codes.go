package errors

// ErrorCategory classifies errors by their nature and retry semantics.
type ErrorCategory string

const (
	// CategoryTransient indicates temporary failures where retry may succeed.
	CategoryTransient ErrorCategory = "transient"

	// CategoryPermanent indicates failures where retry will not help.
	CategoryPermanent ErrorCategory = "permanent"

	// CategoryResource indicates quota or rate exhaustion.
	CategoryResource ErrorCategory = "resource"

	// CategoryInternal indicates unexpected errors or bugs.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the string representation of the category.
func (c ErrorCategory) String() string {
	return string(c)
}

// IsRetryable returns true if errors in this category may succeed on retry.
func (c ErrorCategory) IsRetryable() bool {
	switch c {
	case CategoryTransient, CategoryResource:
		return true
	default:
		return false
	}
}

// ErrorCode identifies specific error types within categories.
type ErrorCode string

const (
	// Transient errors
	ErrCodeTimeout     ErrorCode = "TIMEOUT"     // Generator or lookup timed out
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE" // Generative service temporarily unavailable
	ErrCodeNetworkErr  ErrorCode = "NETWORK_ERR" // Transport failure
	ErrCodeRetryLater  ErrorCode = "RETRY_LATER" // Service asked us to come back later

	// Permanent errors
	ErrCodeEmptyOutput   ErrorCode = "EMPTY_OUTPUT"   // Generator returned no text
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"      // Catalog entry or file missing
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"  // Malformed input
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG" // Configuration rejected by validation
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"   // Missing or rejected API key
	ErrCodeUnsupported   ErrorCode = "UNSUPPORTED"    // Unknown provider or file format
	ErrCodeCanceled      ErrorCode = "CANCELED"       // Caller abandoned the query

	// Resource errors
	ErrCodeRateLimit     ErrorCode = "RATE_LIMITED"   // Provider rate limit
	ErrCodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED" // Billing or quota exhausted

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL" // Unexpected internal error
	ErrCodePanic    ErrorCode = "PANIC"    // Recovered from panic
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}

// DefaultCategory returns the default category for an error code.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeTimeout, ErrCodeUnavailable, ErrCodeNetworkErr, ErrCodeRetryLater:
		return CategoryTransient

	case ErrCodeEmptyOutput, ErrCodeNotFound, ErrCodeInvalidInput, ErrCodeInvalidConfig,
		ErrCodeUnauthorized, ErrCodeUnsupported, ErrCodeCanceled:
		return CategoryPermanent

	case ErrCodeRateLimit, ErrCodeQuotaExceeded:
		return CategoryResource

	default:
		return CategoryInternal
	}
}

// DefaultRetryable returns whether this error code is typically retryable.
func (c ErrorCode) DefaultRetryable() bool {
	return c.DefaultCategory().IsRetryable()
}

var codeDescriptions = map[ErrorCode]string{
	ErrCodeTimeout:       "operation timed out",
	ErrCodeUnavailable:   "service temporarily unavailable",
	ErrCodeNetworkErr:    "network connectivity error",
	ErrCodeRetryLater:    "server requested retry later",
	ErrCodeEmptyOutput:   "generator returned empty output",
	ErrCodeNotFound:      "resource not found",
	ErrCodeInvalidInput:  "invalid input provided",
	ErrCodeInvalidConfig: "invalid configuration",
	ErrCodeUnauthorized:  "authentication required",
	ErrCodeUnsupported:   "operation not supported",
	ErrCodeCanceled:      "operation canceled",
	ErrCodeRateLimit:     "rate limit exceeded",
	ErrCodeQuotaExceeded: "quota exceeded",
	ErrCodeInternal:      "internal error",
	ErrCodePanic:         "recovered from panic",
}

// Description returns a human-readable description for the error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}
