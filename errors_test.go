package cascade

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapCompositionLeavesNilAlone(t *testing.T) {
	require.Nil(t, wrapComposition(nil))
}

func TestWrapCompositionDoesNotDoubleWrap(t *testing.T) {
	cause := errors.New("x")
	once := wrapComposition(cause)
	twice := wrapComposition(once)

	require.Same(t, once, twice)
}

func TestWrapCompositionLeavesCancellationAlone(t *testing.T) {
	ce := newCancellationError()
	require.Same(t, error(ce), wrapComposition(ce))
}

func TestUnwrapOneLevelStripsSingleEnvelope(t *testing.T) {
	cause := errors.New("y")
	wrapped := wrapComposition(cause)

	require.Equal(t, cause, unwrapOneLevel(wrapped))
}

func TestUnwrapOneLevelLeavesCancellationAlone(t *testing.T) {
	ce := newCancellationError()
	require.Equal(t, error(ce), unwrapOneLevel(ce))
}

func TestErrorsIsMatchesErrCancelledAcrossInstances(t *testing.T) {
	a := newCancellationError()
	b := newCancellationError()

	require.NotSame(t, a, b)
	require.ErrorIs(t, a, ErrCancelled)
	require.ErrorIs(t, b, ErrCancelled)
}

func TestCompositionErrorUnwraps(t *testing.T) {
	cause := errors.New("root cause")
	ce := &CompositionError{cause: cause}

	require.ErrorIs(t, ce, cause)
	require.Equal(t, cause, errors.Unwrap(ce))
}

func TestExecutorRejectionErrorUnwraps(t *testing.T) {
	cause := errors.New("rejected")
	re := &ExecutorRejectionError{cause: cause}

	require.ErrorIs(t, re, cause)
}
