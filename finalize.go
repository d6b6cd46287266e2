package cascade

import "context"

// whenCompleteOn is the shared implementation behind WhenComplete/
// WhenCompleteAsync/WhenCompleteAsyncOn (spec.md §4.E, "Finalize"). action
// observes the outcome of s without being able to change it on the happy
// path: on success, succ re-emits s's own value once action has run: but if
// action itself fails, that failure replaces the original outcome. On
// failure, action runs with s's error and succ re-raises the same error
// unless action produces its own, in which case that one wins instead.
func whenCompleteOn[T any](s *Stage[T], action func(T, error) error, exec Executor) *Stage[T] {
	exec = s.resolveExecutor(exec)

	succ := newStage[T](s.defaultExecutor, s.tracer)
	succ.withRootDependency(s)

	s.registry.addCallback(
		func(v T) {
			succ.task.runOn(exec, func(ctx context.Context) (T, error) {
				if aerr := action(v, nil); aerr != nil {
					return zeroOf[T](), aerr
				}
				return v, nil
			})
		},
		func(err error) {
			succ.task.runOn(exec, func(ctx context.Context) (T, error) {
				if aerr := action(zeroOf[T](), unwrapOneLevel(err)); aerr != nil {
					return zeroOf[T](), aerr
				}
				return zeroOf[T](), err
			})
		},
		Inline,
	)

	return succ
}

// WhenComplete runs action once s completes, observing its value and
// error without altering them (unless action itself fails).
func WhenComplete[T any](s *Stage[T], action func(T, error) error) *Stage[T] {
	return whenCompleteOn(s, action, Inline)
}

// WhenCompleteAsync is WhenComplete scheduled on s's default executor.
func WhenCompleteAsync[T any](s *Stage[T], action func(T, error) error) *Stage[T] {
	return whenCompleteOn(s, action, s.defaultExecutor)
}

// WhenCompleteAsyncOn is WhenComplete scheduled on the given executor.
func WhenCompleteAsyncOn[T any](s *Stage[T], action func(T, error) error, exec Executor) *Stage[T] {
	return whenCompleteOn(s, action, exec)
}
