package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies hook failures. Each kind maps to one HTTP status.
type ErrorKind string

const (
	// KindMalformedRequest means the request is missing or carries invalid
	// data the computation needs. The orchestrator should not act on it.
	KindMalformedRequest ErrorKind = "MalformedRequest"

	// KindUnsupportedOperation means the hook or operation does not exist.
	KindUnsupportedOperation ErrorKind = "UnsupportedOperation"

	// KindInternalComputation means the request was well formed but no
	// desired state could be built from it.
	KindInternalComputation ErrorKind = "InternalComputation"
)

var (
	ErrMalformed   = errors.New("malformed request")
	ErrUnsupported = errors.New("unsupported operation")
	ErrInternal    = errors.New("internal computation error")
)

// HookError is the error type returned by hooks and the protocol layer.
type HookError struct {
	Kind ErrorKind
	// Op is "<hook>/<operation>", e.g. "indexedjob/sync".
	Op  string
	Err error
}

func (e *HookError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// Is matches the sentinel of the error kind.
func (e *HookError) Is(target error) bool {
	switch target {
	case ErrMalformed:
		return e.Kind == KindMalformedRequest
	case ErrUnsupported:
		return e.Kind == KindUnsupportedOperation
	case ErrInternal:
		return e.Kind == KindInternalComputation
	}
	return false
}

func Malformedf(op, format string, args ...interface{}) error {
	return &HookError{Kind: KindMalformedRequest, Op: op, Err: fmt.Errorf(format, args...)}
}

func Unsupportedf(op, format string, args ...interface{}) error {
	return &HookError{Kind: KindUnsupportedOperation, Op: op, Err: fmt.Errorf(format, args...)}
}

func Internalf(op, format string, args ...interface{}) error {
	return &HookError{Kind: KindInternalComputation, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err. Errors that are not HookErrors are
// reported as internal.
func KindOf(err error) ErrorKind {
	var he *HookError
	if errors.As(err, &he) {
		return he.Kind
	}
	return KindInternalComputation
}

// OpOf returns the operation recorded in err, or "".
func OpOf(err error) string {
	var he *HookError
	if errors.As(err, &he) {
		return he.Op
	}
	return ""
}
