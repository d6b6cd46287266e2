package cascade

import "context"

// composeOn is the shared implementation behind ThenCompose/
// ThenComposeAsync/ThenComposeAsyncOn (spec.md §4.D/§4.E, "Compose"). It
// is the most subtle combinator because the inner stage cs is produced
// lazily by fn, yet must be cancellable both before it exists (by
// cancelling the upstream that is still producing fn's argument) and
// after it exists (by walking the edge installed once fn returns).
//
// Two stages are allocated:
//   - temp: internal, never exposed. Its sole dependency is the upstream
//     s, so cancelling temp while fn has not yet run (or is still
//     running) cancels s. Its task is what actually runs fn on exec.
//   - next: exposed. Its sole dependency starts out as temp (a "root
//     dependency at construction"); once fn returns cs, that edge is
//     replaced by cs (installSoleDependency), unless next is already
//     cancelled, in which case cs is cancelled immediately with the
//     latched interrupt intent.
func composeOn[T, U any](s *Stage[T], fn func(T) *Stage[U], exec Executor) *Stage[U] {
	exec = s.resolveExecutor(exec)

	temp := newStage[Void](s.defaultExecutor, s.tracer).withRootDependency(s)
	next := newStage[U](s.defaultExecutor, s.tracer).withRootDependency(temp)

	s.registry.addCallback(
		func(v T) {
			temp.task.runOn(exec, func(ctx context.Context) (Void, error) {
				cs := invokeCompose(fn, v)
				if cs == nil {
					next.task.forceComplete(zeroOf[U](), wrapComposition(errNilInnerStage))
					return unit, nil
				}

				// Move-to-next bridge: forward cs's terminal
				// outcome to next's registry, regardless of
				// whether cs was installed as a dependency or
				// cancelled immediately below.
				cs.registry.addCallback(
					func(uv U) { next.task.forceComplete(uv, nil) },
					func(cerr error) { next.task.forceComplete(zeroOf[U](), cerr) },
					Inline,
				)

				next.installSoleDependency(cs)
				return unit, nil
			})
		},
		func(err error) {
			next.task.forceComplete(zeroOf[U](), wrapComposition(err))
		},
		Inline,
	)

	return next
}

func invokeCompose[T, U any](fn func(T) *Stage[U], v T) (cs *Stage[U]) {
	defer func() {
		recover() //nolint:errcheck // a panicking fn simply yields a nil cs, handled by the caller
	}()
	return fn(v)
}

// ThenCompose runs fn on the thread that completes s.
func ThenCompose[T, U any](s *Stage[T], fn func(T) *Stage[U]) *Stage[U] {
	return composeOn(s, fn, Inline)
}

// ThenComposeAsync runs fn on s's default executor.
func ThenComposeAsync[T, U any](s *Stage[T], fn func(T) *Stage[U]) *Stage[U] {
	return composeOn(s, fn, s.defaultExecutor)
}

// ThenComposeAsyncOn runs fn on the given executor.
func ThenComposeAsyncOn[T, U any](s *Stage[T], fn func(T) *Stage[U], exec Executor) *Stage[U] {
	return composeOn(s, fn, exec)
}
