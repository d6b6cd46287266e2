package cascade

import "context"

// handleOn is the shared implementation behind Handle/HandleAsync/
// HandleAsyncOn (spec.md §4.E, "Handle"). Unlike Exceptionally, fn always
// runs regardless of whether s succeeded or failed, and it alone decides
// the successor's outcome. The error handed to fn on the failure path is
// unwrapped one level, matching exceptionally and whenComplete.
func handleOn[T, U any](s *Stage[T], fn func(T, error) (U, error), exec Executor) *Stage[U] {
	exec = s.resolveExecutor(exec)

	succ := newStage[U](s.defaultExecutor, s.tracer)
	succ.withRootDependency(s)

	s.registry.addCallback(
		func(v T) {
			succ.task.runOn(exec, func(ctx context.Context) (U, error) {
				return fn(v, nil)
			})
		},
		func(err error) {
			succ.task.runOn(exec, func(ctx context.Context) (U, error) {
				return fn(zeroOf[T](), unwrapOneLevel(err))
			})
		},
		Inline,
	)

	return succ
}

// Handle maps both the success and failure paths of s into a new value.
func Handle[T, U any](s *Stage[T], fn func(T, error) (U, error)) *Stage[U] {
	return handleOn(s, fn, Inline)
}

// HandleAsync is Handle scheduled on s's default executor.
func HandleAsync[T, U any](s *Stage[T], fn func(T, error) (U, error)) *Stage[U] {
	return handleOn(s, fn, s.defaultExecutor)
}

// HandleAsyncOn is Handle scheduled on the given executor.
func HandleAsyncOn[T, U any](s *Stage[T], fn func(T, error) (U, error), exec Executor) *Stage[U] {
	return handleOn(s, fn, exec)
}
