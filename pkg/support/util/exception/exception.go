// Package exception provides the custom error types used across the mooring library.
// Errors raised by the connection-provider layer carry a kind discriminator so callers
// can classify them without string matching, and always wrap the originating error.
package exception

import (
	"errors"
	"fmt"
	"runtime"
)

// Kind classifies a ProviderError into one of the error categories raised by
// the connection-provider layer.
type Kind int

const (
	// KindConfiguration indicates that required configuration or collaborators were
	// missing or contradictory (no source, no lookup name, no lookup service, or a
	// lookup that resolved to nothing). Fatal to the configure/resolve call.
	KindConfiguration Kind = iota
	// KindIllegalState indicates an operation requiring availability was invoked on a
	// stopped or unconfigured provider. Recoverable by reconfiguring and retrying.
	KindIllegalState
	// KindAcquisition indicates a failure propagated from the underlying source while
	// acquiring a connection. Never retried at this layer.
	KindAcquisition
	// KindRelease indicates a failure propagated from the underlying source while
	// releasing a connection.
	KindRelease
	// KindUnsupportedUnwrap indicates capability introspection was asked for a kind
	// the provider cannot present itself as.
	KindUnsupportedUnwrap
)

// String returns the canonical name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindIllegalState:
		return "illegal_state"
	case KindAcquisition:
		return "acquisition"
	case KindRelease:
		return "release"
	case KindUnsupportedUnwrap:
		return "unsupported_unwrap"
	default:
		return "unknown"
	}
}

// ProviderError is the error type raised by the connection-provider layer.
// It holds the module where the error occurred, a message, the wrapped original
// error, and the kind discriminator used for classification.
type ProviderError struct {
	// Module indicates the module where the error occurred (e.g., "provider", "lookup", "source").
	Module string
	// Message is a concise description of the error.
	Message string
	// Kind classifies the error.
	Kind Kind
	// OriginalErr is the wrapped original error, if any.
	OriginalErr error
	// StackTrace is the stack trace at the time of the error (for debugging).
	StackTrace string
}

// NewProviderError creates a new ProviderError instance.
func NewProviderError(module, message string, kind Kind, originalErr error) *ProviderError {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)

	return &ProviderError{
		Module:      module,
		Message:     message,
		Kind:        kind,
		OriginalErr: originalErr,
		StackTrace:  string(buf[:n]),
	}
}

// NewProviderErrorf creates a new ProviderError using a format string.
// An error supplied as the final variadic argument is extracted and wrapped.
func NewProviderErrorf(module string, kind Kind, format string, a ...interface{}) *ProviderError {
	var originalErr error
	args := a
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}
	return NewProviderError(module, fmt.Sprintf(format, args...), kind, originalErr)
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *ProviderError) Unwrap() error {
	return e.OriginalErr
}

// kindOf extracts the kind of err if it is (or wraps) a ProviderError.
func kindOf(err error) (Kind, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindConfiguration
}

// IsIllegalState reports whether err is an illegal-state error.
func IsIllegalState(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindIllegalState
}

// IsAcquisition reports whether err is a connection-acquisition error.
func IsAcquisition(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindAcquisition
}

// IsRelease reports whether err is a connection-release error.
func IsRelease(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindRelease
}

// IsUnsupportedUnwrap reports whether err is an unsupported-unwrap error.
func IsUnsupportedUnwrap(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindUnsupportedUnwrap
}
