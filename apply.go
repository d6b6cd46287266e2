package cascade

import "context"

// applyOn is the shared implementation behind ThenApply/ThenApplyAsync/
// ThenApplyAsyncOn (spec.md §4.E, "Map / Accept / Run"). The successor's
// computation is fn(upstream value), scheduled on exec once the upstream
// succeeds; on upstream failure the successor fails with the same
// (wrapped) cause. The upstream is recorded as the successor's sole
// dependency so cancelling the successor before its own task starts also
// cancels the upstream.
func applyOn[T, U any](s *Stage[T], fn func(T) (U, error), exec Executor) *Stage[U] {
	exec = s.resolveExecutor(exec)
	succ := newStage[U](s.defaultExecutor, s.tracer).withRootDependency(s)

	s.registry.addCallback(
		func(v T) {
			succ.task.runOn(exec, func(ctx context.Context) (U, error) {
				return fn(v)
			})
		},
		func(err error) {
			var zero U
			succ.task.forceComplete(zero, wrapComposition(err))
		},
		Inline,
	)
	return succ
}

// ThenApply runs fn on the thread that completes s (the "inline on
// completer" variant).
func ThenApply[T, U any](s *Stage[T], fn func(T) (U, error)) *Stage[U] {
	return applyOn(s, fn, Inline)
}

// ThenApplyAsync runs fn on s's default executor.
func ThenApplyAsync[T, U any](s *Stage[T], fn func(T) (U, error)) *Stage[U] {
	return applyOn(s, fn, s.defaultExecutor)
}

// ThenApplyAsyncOn runs fn on the given executor.
func ThenApplyAsyncOn[T, U any](s *Stage[T], fn func(T) (U, error), exec Executor) *Stage[U] {
	return applyOn(s, fn, exec)
}

func acceptOn[T any](s *Stage[T], fn func(T) error, exec Executor) *Stage[Void] {
	return applyOn(s, func(v T) (Void, error) {
		return unit, fn(v)
	}, exec)
}

// ThenAccept runs fn for its side effect, discarding its own value.
func ThenAccept[T any](s *Stage[T], fn func(T) error) *Stage[Void] {
	return acceptOn(s, fn, Inline)
}

// ThenAcceptAsync is ThenAccept scheduled on s's default executor.
func ThenAcceptAsync[T any](s *Stage[T], fn func(T) error) *Stage[Void] {
	return acceptOn(s, fn, s.defaultExecutor)
}

// ThenAcceptAsyncOn is ThenAccept scheduled on the given executor.
func ThenAcceptAsyncOn[T any](s *Stage[T], fn func(T) error, exec Executor) *Stage[Void] {
	return acceptOn(s, fn, exec)
}

func runOn[T any](s *Stage[T], fn func() error, exec Executor) *Stage[Void] {
	return applyOn(s, func(T) (Void, error) {
		return unit, fn()
	}, exec)
}

// ThenRun runs fn for its side effect once s succeeds, ignoring its value.
func ThenRun[T any](s *Stage[T], fn func() error) *Stage[Void] {
	return runOn(s, fn, Inline)
}

// ThenRunAsync is ThenRun scheduled on s's default executor.
func ThenRunAsync[T any](s *Stage[T], fn func() error) *Stage[Void] {
	return runOn(s, fn, s.defaultExecutor)
}

// ThenRunAsyncOn is ThenRun scheduled on the given executor.
func ThenRunAsyncOn[T any](s *Stage[T], fn func() error, exec Executor) *Stage[Void] {
	return runOn(s, fn, exec)
}
