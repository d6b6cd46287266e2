package cascade

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThenApplyChains(t *testing.T) {
	s := Completed(Inline, 2)
	doubled := ThenApply(s, func(v int) (int, error) { return v * 2, nil })

	v, err := doubled.Get()
	require.NoError(t, err)
	require.Equal(t, 4, v)
}

func TestThenApplyPropagatesUpstreamFailure(t *testing.T) {
	cause := errors.New("upstream broke")
	s := Failed[int](Inline, cause)
	mapped := ThenApply(s, func(v int) (int, error) { return v + 1, nil })

	_, err := mapped.Get()
	require.ErrorIs(t, err, cause)
}

func TestThenAcceptDiscardsValue(t *testing.T) {
	s := Completed(Inline, "x")
	var seen string
	done := ThenAccept(s, func(v string) error { seen = v; return nil })

	_, err := done.Get()
	require.NoError(t, err)
	require.Equal(t, "x", seen)
}

func TestThenRunIgnoresUpstreamValue(t *testing.T) {
	s := Completed(Inline, 99)
	var ran bool
	done := ThenRun(s, func() error { ran = true; return nil })

	_, err := done.Get()
	require.NoError(t, err)
	require.True(t, ran)
}

func TestThenComposeFlattensNestedStage(t *testing.T) {
	s := Completed(Inline, 3)
	composed := ThenCompose(s, func(v int) *Stage[int] {
		return Completed(Inline, v*10)
	})

	v, err := composed.Get()
	require.NoError(t, err)
	require.Equal(t, 30, v)
}

func TestThenComposeNilInnerStageFails(t *testing.T) {
	s := Completed(Inline, 3)
	composed := ThenCompose(s, func(int) *Stage[int] {
		return nil
	})

	_, err := composed.Get()
	require.Error(t, err)
	require.ErrorIs(t, err, errNilInnerStage)
}

func TestThenCombineJoinsBothValues(t *testing.T) {
	a := Completed(Inline, 2)
	b := Completed(Inline, 3)
	combined := ThenCombine(a, b, func(x, y int) (int, error) { return x + y, nil })

	v, err := combined.Get()
	require.NoError(t, err)
	require.Equal(t, 5, v)
}

func TestApplyToEitherTakesFirstCompletion(t *testing.T) {
	fast := Completed(Inline, "fast")
	slow := Failed[string](Inline, errors.New("should not be observed if fast wins registration order"))
	either := ApplyToEither(fast, slow, func(v string) (string, error) { return v, nil })

	v, err := either.Get()
	// Both upstreams are already terminal at construction time, so whichever
	// addCallback runs first (fast, registered first) wins the race.
	require.NoError(t, err)
	require.Equal(t, "fast", v)
}

func TestExceptionallyRecoversFromFailure(t *testing.T) {
	cause := errors.New("boom")
	s := Failed[int](Inline, cause)
	recovered := Exceptionally(s, func(err error) (int, error) {
		require.ErrorIs(t, err, cause)
		return -1, nil
	})

	v, err := recovered.Get()
	require.NoError(t, err)
	require.Equal(t, -1, v)
}

func TestExceptionallyPassesThroughSuccess(t *testing.T) {
	s := Completed(Inline, 5)
	recovered := Exceptionally(s, func(error) (int, error) {
		t.Fatal("fn must not run on success")
		return 0, nil
	})

	v, err := recovered.Get()
	require.NoError(t, err)
	require.Equal(t, 5, v)
}

func TestWhenCompleteReemitsOriginalOutcome(t *testing.T) {
	s := Completed(Inline, "v")
	var observedErr error
	done := WhenComplete(s, func(v string, err error) error {
		observedErr = err
		return nil
	})

	v, err := done.Get()
	require.NoError(t, err)
	require.Equal(t, "v", v)
	require.NoError(t, observedErr)
}

func TestWhenCompleteActionFailureReplacesOutcome(t *testing.T) {
	s := Completed(Inline, "v")
	actionErr := errors.New("action failed")
	done := WhenComplete(s, func(string, error) error {
		return actionErr
	})

	_, err := done.Get()
	require.ErrorIs(t, err, actionErr)
}

func TestHandleMapsSuccessAndFailure(t *testing.T) {
	okStage := Completed(Inline, 1)
	okHandled := Handle(okStage, func(v int, err error) (string, error) {
		if err != nil {
			return "fail", nil
		}
		return "ok", nil
	})
	v, err := okHandled.Get()
	require.NoError(t, err)
	require.Equal(t, "ok", v)

	cause := errors.New("bad")
	failStage := Failed[int](Inline, cause)
	failHandled := Handle(failStage, func(v int, err error) (string, error) {
		if err != nil {
			return "fail", nil
		}
		return "ok", nil
	})
	v2, err2 := failHandled.Get()
	require.NoError(t, err2)
	require.Equal(t, "fail", v2)
}

func TestExceptionallyIdentityRecoversCauseAsSuccess(t *testing.T) {
	cause := errors.New("original")
	s := Failed[error](Inline, cause)
	recovered := Exceptionally(s, func(err error) (error, error) {
		return err, nil
	})

	v, err := recovered.Get()
	require.NoError(t, err)
	require.ErrorIs(t, v, cause)
}
