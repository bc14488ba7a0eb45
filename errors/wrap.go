package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap adds context to err while preserving the chain. A nil err yields
// nil. An *Error in the chain lends its code, category, retryability and
// metadata; context deadline and cancellation map to TIMEOUT and CANCELED;
// anything else becomes INTERNAL.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	if inner := AsCoded(err); inner != nil {
		e := *inner
		e.message, e.cause, e.metadata = message, err, inner.Metadata()
		for _, opt := range opts {
			opt(&e)
		}
		return &e
	}
	return WrapWithCode(err, contextCode(err), message, opts...)
}

func contextCode(err error) ErrorCode {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	case errors.Is(err, context.Canceled):
		return ErrCodeCanceled
	}
	return ErrCodeInternal
}

// WrapWithCode wraps an error with a specific error code.
func WrapWithCode(err error, code ErrorCode, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	opts = append(opts, WithCause(err))
	return New(code, message, opts...)
}

// AsCoded extracts the first *Error from an error chain, or nil.
func AsCoded(err error) *Error {
	var coded *Error
	if errors.As(err, &coded) {
		return coded
	}
	return nil
}

// Is checks if the first structured error in the chain has the given code.
func Is(err error, code ErrorCode) bool {
	if coded := AsCoded(err); coded != nil {
		return coded.code == code
	}
	return false
}

// IsCategory checks if the first structured error in the chain has the given category.
func IsCategory(err error, category ErrorCategory) bool {
	if coded := AsCoded(err); coded != nil {
		return coded.category == category
	}
	return false
}

// IsRetryable checks if the error is retryable. Plain errors are not.
func IsRetryable(err error) bool {
	if coded := AsCoded(err); coded != nil {
		return coded.Retryable()
	}
	return false
}

// IsTransient checks if the error is transient.
func IsTransient(err error) bool {
	return IsCategory(err, CategoryTransient)
}

// IsPermanent checks if the error is permanent.
func IsPermanent(err error) bool {
	return IsCategory(err, CategoryPermanent)
}

// Code extracts the error code, or "" if err is not structured.
func Code(err error) ErrorCode {
	if coded := AsCoded(err); coded != nil {
		return coded.code
	}
	return ""
}

// GetMetadata extracts metadata from an error, or nil.
func GetMetadata(err error) map[string]string {
	if coded := AsCoded(err); coded != nil {
		return coded.Metadata()
	}
	return nil
}

// Cause returns the innermost error of a single-cause chain.
func Cause(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	return err
}

// Join combines multiple errors into a single error.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// RecoverPanic converts a recovered panic value into an Error.
func RecoverPanic(recovered interface{}) *Error {
	if recovered == nil {
		return nil
	}
	var message string
	switch v := recovered.(type) {
	case error:
		message = v.Error()
	case string:
		message = v
	default:
		message = fmt.Sprintf("%v", v)
	}
	return New(ErrCodePanic, message, WithMetadata("panic_value", fmt.Sprintf("%T", recovered)))
}
