// Package errors provides the structured error taxonomy used across
// toolrouter. Every failure that crosses a package boundary (catalog
// loading, generator calls, external lookups, configuration) is reported
// as an *Error carrying a code, a category and optional metadata.
//
// # Error Categories
//
//   - Transient: temporary failures where retry may succeed (timeouts, outages)
//   - Permanent: failures where retry will not help (bad input, empty output)
//   - Resource: quota and rate exhaustion at the generative service
//   - Internal: unexpected errors indicating bugs
//
// # Usage
//
//	err := errors.New(errors.ErrCodeEmptyOutput, "generator returned no text")
//	wrapped := errors.Wrap(ctx.Err(), "web lookup")   // TIMEOUT or CANCELED
//
//	if errors.IsRetryable(err) {
//	    // back off and retry
//	}
//
// Errors marshal to JSON so they can be attached to responses and logs.
package errors
