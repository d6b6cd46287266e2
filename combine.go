package cascade

// combineOn is the shared implementation behind ThenCombine*,
// ThenAcceptBoth*, and RunAfterBoth* (spec.md §4.E, "Combine"). As the
// spec prescribes, it is expressed as a compose over the first upstream
// plus a map over the second, bridged with Inline: fn(t) itself just
// builds an apply-stage over other, which is cheap enough to run inline
// as the "produce the inner stage" step of compose.
//
// Because thenCompose's own cancellation graph only chains through the
// first upstream (s, via temp), a cancellation of the combined stage
// would otherwise leave other dangling if it raced ahead of the compose
// wiring. The post-completion hook below watches the combined stage and,
// if it ends up Cancelled, cancels other directly using the latched
// interrupt intent — the first upstream was already reached through the
// compose path.
func combineOn[T, U, V any](s *Stage[T], other *Stage[U], fn func(T, U) (V, error), exec Executor) *Stage[V] {
	exec = s.resolveExecutor(exec)

	combined := composeOn(s, func(t T) *Stage[V] {
		return applyOn(other, func(u U) (V, error) {
			return fn(t, u)
		}, exec)
	}, Inline)

	combined.registry.addCallback(
		nil,
		func(err error) {
			if _, cancelled := err.(*CancellationError); !cancelled {
				return
			}
			combined.depLock.Lock()
			interrupt := combined.interruptedOnCancel
			combined.depLock.Unlock()
			other.Cancel(interrupt)
		},
		Inline,
	)

	return combined
}

// ThenCombine runs fn on the thread that completes the later of s/other.
func ThenCombine[T, U, V any](s *Stage[T], other *Stage[U], fn func(T, U) (V, error)) *Stage[V] {
	return combineOn(s, other, fn, Inline)
}

// ThenCombineAsync runs fn on s's default executor.
func ThenCombineAsync[T, U, V any](s *Stage[T], other *Stage[U], fn func(T, U) (V, error)) *Stage[V] {
	return combineOn(s, other, fn, s.defaultExecutor)
}

// ThenCombineAsyncOn runs fn on the given executor.
func ThenCombineAsyncOn[T, U, V any](s *Stage[T], other *Stage[U], fn func(T, U) (V, error), exec Executor) *Stage[V] {
	return combineOn(s, other, fn, exec)
}

func acceptBothOn[T, U any](s *Stage[T], other *Stage[U], fn func(T, U) error, exec Executor) *Stage[Void] {
	return combineOn(s, other, func(t T, u U) (Void, error) {
		return unit, fn(t, u)
	}, exec)
}

// ThenAcceptBoth runs fn for its side effect once both s and other
// succeed, discarding its return value.
func ThenAcceptBoth[T, U any](s *Stage[T], other *Stage[U], fn func(T, U) error) *Stage[Void] {
	return acceptBothOn(s, other, fn, Inline)
}

// ThenAcceptBothAsync is ThenAcceptBoth scheduled on s's default executor.
func ThenAcceptBothAsync[T, U any](s *Stage[T], other *Stage[U], fn func(T, U) error) *Stage[Void] {
	return acceptBothOn(s, other, fn, s.defaultExecutor)
}

// ThenAcceptBothAsyncOn is ThenAcceptBoth scheduled on the given executor.
func ThenAcceptBothAsyncOn[T, U any](s *Stage[T], other *Stage[U], fn func(T, U) error, exec Executor) *Stage[Void] {
	return acceptBothOn(s, other, fn, exec)
}

func runAfterBothOn[T, U any](s *Stage[T], other *Stage[U], fn func() error, exec Executor) *Stage[Void] {
	return combineOn(s, other, func(T, U) (Void, error) {
		return unit, fn()
	}, exec)
}

// RunAfterBoth runs fn once both s and other succeed, ignoring their
// values.
func RunAfterBoth[T, U any](s *Stage[T], other *Stage[U], fn func() error) *Stage[Void] {
	return runAfterBothOn(s, other, fn, Inline)
}

// RunAfterBothAsync is RunAfterBoth scheduled on s's default executor.
func RunAfterBothAsync[T, U any](s *Stage[T], other *Stage[U], fn func() error) *Stage[Void] {
	return runAfterBothOn(s, other, fn, s.defaultExecutor)
}

// RunAfterBothAsyncOn is RunAfterBoth scheduled on the given executor.
func RunAfterBothAsyncOn[T, U any](s *Stage[T], other *Stage[U], fn func() error, exec Executor) *Stage[Void] {
	return runAfterBothOn(s, other, fn, exec)
}
