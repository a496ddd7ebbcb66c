package common

import (
	"errors"
	"fmt"
	"strings"
)

// ErrKind classifies the failures that can occur while authoring, validating
// and holding entries.
type ErrKind uint32

const (
	// IoError means a storage backend or the network was unavailable.
	IoError ErrKind = iota
	// SerializationError means the content at an address could not be
	// decoded.
	SerializationError
	// ValidationFailed is a terminal rejection by the validator.
	ValidationFailed
	// ValidationPending means a dependency is not available yet. It is
	// converted into scheduler state and never surfaced to authors.
	ValidationPending
	// Timeout means a network hop did not answer in time.
	Timeout
	// MissingData means a structural invariant was violated, for example a
	// header referenced by a chain is absent.
	MissingData
	// NotImplemented means no validation logic exists for an entry type. It
	// counts as a pass.
	NotImplemented
)

// String ...
func (k ErrKind) String() string {
	switch k {
	case IoError:
		return "IoError"
	case SerializationError:
		return "SerializationError"
	case ValidationFailed:
		return "ValidationFailed"
	case ValidationPending:
		return "ValidationPending"
	case Timeout:
		return "Timeout"
	case MissingData:
		return "MissingData"
	case NotImplemented:
		return "NotImplemented"
	default:
		return "Unknown"
	}
}

// CoreErr is a classified error. Address is the content address the error is
// about, if any. Dependencies is only set for ValidationPending.
type CoreErr struct {
	Kind         ErrKind
	Address      string
	Reason       string
	Dependencies []string
	cause        error
}

// Error ...
func (e *CoreErr) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Address != "" && !strings.Contains(e.Reason, e.Address) {
		fmt.Fprintf(&b, " [%s]", e.Address)
	}
	if len(e.Dependencies) > 0 {
		fmt.Fprintf(&b, " (waiting on %s)", strings.Join(e.Dependencies, ", "))
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

// Unwrap returns the underlying error, if any.
func (e *CoreErr) Unwrap() error {
	return e.cause
}

// NewCoreErr creates a CoreErr of the given kind.
func NewCoreErr(kind ErrKind, address string, reason string) *CoreErr {
	return &CoreErr{
		Kind:    kind,
		Address: address,
		Reason:  reason,
	}
}

// WrapCoreErr classifies an underlying error.
func WrapCoreErr(kind ErrKind, address string, cause error) *CoreErr {
	return &CoreErr{
		Kind:    kind,
		Address: address,
		cause:   cause,
	}
}

// NewPendingErr creates a ValidationPending error listing the dependencies
// that are not held yet.
func NewPendingErr(address string, dependencies []string) *CoreErr {
	return &CoreErr{
		Kind:         ValidationPending,
		Address:      address,
		Reason:       "unresolved dependencies",
		Dependencies: dependencies,
	}
}

// Is reports whether err, or any error it wraps, is a CoreErr of kind k.
func Is(err error, k ErrKind) bool {
	var coreErr *CoreErr
	if errors.As(err, &coreErr) {
		return coreErr.Kind == k
	}
	return false
}

// AsCore extracts the first CoreErr in err's chain.
func AsCore(err error) (*CoreErr, bool) {
	var coreErr *CoreErr
	ok := errors.As(err, &coreErr)
	return coreErr, ok
}
