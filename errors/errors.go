// Package errors provides the structured error type shared by every covaflow
// package. Errors carry a machine-readable code, the invariant that failed
// in their details, whether the caller may retry the whole run, and the
// process exit code the command line should use.
package errors

import (
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the whole run can be retried by the caller.
	Retryable bool `json:"retryable"`
	// ExitCode is the recommended process exit code for this error.
	ExitCode int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with retryable and exit code derived from the code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
		ExitCode:  ExitCodeFor(code),
	}
}

// --- Construction-time errors ---

// TopologyMismatch reports lane counts that do not divide evenly at a boundary.
func TopologyMismatch(boundary, totalName string, total int, groupsName string, groups int) *AppError {
	return New(ErrCodeTopologyMismatch,
		fmt.Sprintf("%s: %s=%d is not divisible by %s=%d", boundary, totalName, total, groupsName, groups),
	).WithDetails(map[string]any{
		"boundary": boundary,
		totalName:  total,
		groupsName: groups,
	})
}

// ProducerMismatch reports a fan-in whose upstream producer count differs from its group size.
func ProducerMismatch(boundary string, producers, expected int) *AppError {
	return New(ErrCodeTopologyMismatch,
		fmt.Sprintf("%s: %d upstream producers, expected %d", boundary, producers, expected),
	).WithDetails(map[string]any{
		"boundary":  boundary,
		"producers": producers,
		"expected":  expected,
	})
}

// InvalidTopology reports a violated graph invariant.
func InvalidTopology(reason string) *AppError {
	return New(ErrCodeInvalidTopology, reason)
}

// UnknownTruncation reports a truncation point that the variant does not declare.
func UnknownTruncation(variant, point string, declared []string) *AppError {
	return New(ErrCodeUnknownTruncation,
		fmt.Sprintf("truncation point %q is not declared for variant %s", point, variant),
	).WithDetails(map[string]any{
		"variant":  variant,
		"point":    point,
		"declared": declared,
	})
}

// UnknownParameter reports a parameter outside the closed schema of an element.
func UnknownParameter(element, param string) *AppError {
	return New(ErrCodeUnknownParameter,
		fmt.Sprintf("%s has no parameter %q", element, param),
	).WithDetails(map[string]any{"element": element, "param": param})
}

// InvalidParameter reports a parameter value the schema does not accept.
func InvalidParameter(element, param, reason string) *AppError {
	return New(ErrCodeInvalidParameter,
		fmt.Sprintf("%s.%s: %s", element, param, reason),
	).WithDetails(map[string]any{"element": element, "param": param})
}

// InvalidConfig reports a configuration validation failure.
func InvalidConfig(reason string) *AppError {
	return New(ErrCodeInvalidConfig, reason)
}

// AlreadyMaterialized reports a second attempt to run the deferred build phase.
func AlreadyMaterialized() *AppError {
	return New(ErrCodeAlreadyMaterialized, "graph remainder was already built")
}

// --- Engine errors ---

// ElementUnavailable reports an element factory the engine cannot instantiate.
func ElementUnavailable(factory string, cause error) *AppError {
	return New(ErrCodeElementUnavailable,
		fmt.Sprintf("engine cannot create element %q", factory),
	).WithDetail("factory", factory).WithCause(cause)
}

// LinkFailed reports a pad link the engine refused.
func LinkFailed(from, to string, cause error) *AppError {
	return New(ErrCodeLinkFailed,
		fmt.Sprintf("engine refused link %s -> %s", from, to),
	).WithDetails(map[string]any{"from": from, "to": to}).WithCause(cause)
}

// EngineStartup reports the engine refusing the Paused transition.
func EngineStartup(cause error) *AppError {
	return New(ErrCodeEngineStartup, "unable to set the pipeline to the paused state").WithCause(cause)
}

// EngineError reports an error event raised by the engine while running.
func EngineError(source string, cause error) *AppError {
	return New(ErrCodeEngineError,
		fmt.Sprintf("engine error from %s", source),
	).WithDetail("source", source).WithCause(cause)
}

// Canceled reports an externally requested termination.
func Canceled(reason string) *AppError {
	return New(ErrCodeCanceled, reason)
}

// Internal reports a programming error.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "an unexpected error occurred").WithCause(cause)
}
