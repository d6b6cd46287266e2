package cascade

import (
	"context"
	"sync/atomic"
)

// eitherOn is the shared implementation behind ApplyToEither*,
// AcceptEither* and RunAfterEither* (spec.md §4.D/§4.E, "Either"). Both
// candidate upstreams subscribe a bridge that races to drive the
// successor's task; a single atomic flag lets the first arrival through
// and drops the second, which is exactly the "funnel" behaviour spec.md
// describes without needing a separate funnel stage.
// Both upstreams are recorded as the successor's dependencies so
// cancelling the successor aborts both producers.
func eitherOn[T, U any](s *Stage[T], other *Stage[T], fn func(T) (U, error), exec Executor) *Stage[U] {
	exec = s.resolveExecutor(exec)

	succ := newStage[U](s.defaultExecutor, s.tracer)
	succ.withRootDependency(s)
	succ.addDependency(other)

	var decided atomic.Bool
	race := func(v T) {
		if !decided.CompareAndSwap(false, true) {
			return
		}
		succ.task.runOn(exec, func(ctx context.Context) (U, error) {
			return fn(v)
		})
	}
	raceFail := func(err error) {
		if !decided.CompareAndSwap(false, true) {
			return
		}
		succ.task.forceComplete(zeroOf[U](), wrapComposition(err))
	}

	s.registry.addCallback(race, raceFail, Inline)
	other.registry.addCallback(race, raceFail, Inline)

	return succ
}

// ApplyToEither applies fn to whichever of s/other completes first.
func ApplyToEither[T, U any](s *Stage[T], other *Stage[T], fn func(T) (U, error)) *Stage[U] {
	return eitherOn(s, other, fn, Inline)
}

// ApplyToEitherAsync is ApplyToEither scheduled on s's default executor.
func ApplyToEitherAsync[T, U any](s *Stage[T], other *Stage[T], fn func(T) (U, error)) *Stage[U] {
	return eitherOn(s, other, fn, s.defaultExecutor)
}

// ApplyToEitherAsyncOn is ApplyToEither scheduled on the given executor.
func ApplyToEitherAsyncOn[T, U any](s *Stage[T], other *Stage[T], fn func(T) (U, error), exec Executor) *Stage[U] {
	return eitherOn(s, other, fn, exec)
}

func acceptEitherOn[T any](s *Stage[T], other *Stage[T], fn func(T) error, exec Executor) *Stage[Void] {
	return eitherOn(s, other, func(v T) (Void, error) {
		return unit, fn(v)
	}, exec)
}

// AcceptEither runs fn on whichever of s/other completes first, discarding
// its return value.
func AcceptEither[T any](s *Stage[T], other *Stage[T], fn func(T) error) *Stage[Void] {
	return acceptEitherOn(s, other, fn, Inline)
}

// AcceptEitherAsync is AcceptEither scheduled on s's default executor.
func AcceptEitherAsync[T any](s *Stage[T], other *Stage[T], fn func(T) error) *Stage[Void] {
	return acceptEitherOn(s, other, fn, s.defaultExecutor)
}

// AcceptEitherAsyncOn is AcceptEither scheduled on the given executor.
func AcceptEitherAsyncOn[T any](s *Stage[T], other *Stage[T], fn func(T) error, exec Executor) *Stage[Void] {
	return acceptEitherOn(s, other, fn, exec)
}

func runAfterEitherOn[T any](s *Stage[T], other *Stage[T], fn func() error, exec Executor) *Stage[Void] {
	return eitherOn(s, other, func(T) (Void, error) {
		return unit, fn()
	}, exec)
}

// RunAfterEither runs fn once whichever of s/other completes first.
func RunAfterEither[T any](s *Stage[T], other *Stage[T], fn func() error) *Stage[Void] {
	return runAfterEitherOn(s, other, fn, Inline)
}

// RunAfterEitherAsync is RunAfterEither scheduled on s's default executor.
func RunAfterEitherAsync[T any](s *Stage[T], other *Stage[T], fn func() error) *Stage[Void] {
	return runAfterEitherOn(s, other, fn, s.defaultExecutor)
}

// RunAfterEitherAsyncOn is RunAfterEither scheduled on the given executor.
func RunAfterEitherAsyncOn[T any](s *Stage[T], other *Stage[T], fn func() error, exec Executor) *Stage[Void] {
	return runAfterEitherOn(s, other, fn, exec)
}
