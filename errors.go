package cascade

import (
	"errors"
	"fmt"
)

// errNilInnerStage is the cause wrapped when a thenCompose function
// returns a nil inner stage instead of a real one.
var errNilInnerStage = errors.New("cascade: compose function returned a nil stage")

// CancellationError is the failure a stage's registry receives when the
// stage (or an ancestor in its cancellation graph) is cancelled. Each
// Stage.Cancel constructs a fresh instance, which the stage's registry
// hands to all of its subscribers, late ones included; unrelated stages
// never share a pointer. errors.Is still reports a match against
// ErrCancelled because CancellationError implements Is itself.
//
// The unused byte gives the type a non-zero size, so that every
// allocation has its own address.
type CancellationError struct{ _ byte }

func (e *CancellationError) Error() string { return "cascade: stage was cancelled" }

func (e *CancellationError) Is(target error) bool {
	_, ok := target.(*CancellationError)
	return ok
}

func newCancellationError() *CancellationError { return &CancellationError{} }

// ErrCancelled is a sentinel usable with errors.Is to detect cancellation
// regardless of which CancellationError instance was actually returned.
var ErrCancelled error = &CancellationError{}

// CompositionError envelopes a throwable propagated through the
// combinator chain. It is never nested: wrapComposition leaves an
// already-wrapped error (CompositionError or CancellationError) alone.
type CompositionError struct {
	cause error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("cascade: composition failed: %v", e.cause)
}

func (e *CompositionError) Unwrap() error { return e.cause }

// ExecutorRejectionError wraps the cause an Executor gave when it refused
// to accept a scheduled computation. It is surfaced to downstream
// registries as a CompositionError whose cause is this type, identically
// to any other user failure.
type ExecutorRejectionError struct {
	cause error
}

func (e *ExecutorRejectionError) Error() string {
	return fmt.Sprintf("cascade: executor rejected submission: %v", e.cause)
}

func (e *ExecutorRejectionError) Unwrap() error { return e.cause }

// alreadyWrapped reports whether err is a taxonomy member that must not be
// wrapped again when it crosses another combinator boundary.
func alreadyWrapped(err error) bool {
	switch err.(type) {
	case *CancellationError, *CompositionError:
		return true
	default:
		return false
	}
}

// wrapComposition wraps err in a CompositionError unless it is nil or
// already wrapped (spec.md §3 invariant 6).
func wrapComposition(err error) error {
	if err == nil {
		return nil
	}
	if alreadyWrapped(err) {
		return err
	}
	return &CompositionError{cause: err}
}

// unwrapOneLevel strips a single CompositionError envelope, as the
// blocking Get accessor and the failure-observing combinators
// (exceptionally, whenComplete, handle) must (spec.md §7).
func unwrapOneLevel(err error) error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*CompositionError); ok && ce.cause != nil {
		return ce.cause
	}
	return err
}
