package cascade

import "context"

// Exceptionally lets fn recover from s's failure, producing a new value in
// place of the error (spec.md §4.E, "Recover"). It has no Async/AsyncOn
// variant: fn is always dispatched Inline on the thread that observes s's
// failure, since it is expected to be a cheap fallback computation rather
// than one warranting its own scheduling decision. On s's success the
// value passes through untouched; fn never runs. The error handed to fn is
// unwrapped one level (spec.md §7), so fn sees the user's original cause
// rather than cascade's CompositionError envelope.
func Exceptionally[T any](s *Stage[T], fn func(error) (T, error)) *Stage[T] {
	succ := newStage[T](s.defaultExecutor, s.tracer)
	succ.withRootDependency(s)

	s.registry.addCallback(
		func(v T) { succ.task.forceComplete(v, nil) },
		func(err error) {
			succ.task.runOn(Inline, func(ctx context.Context) (T, error) {
				return fn(unwrapOneLevel(err))
			})
		},
		Inline,
	)

	return succ
}
