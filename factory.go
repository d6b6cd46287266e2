package cascade

import "context"

// Submit starts fn on exec and returns the stage that will hold its
// outcome (spec.md §4.H). fn receives a context that is cancelled if the
// returned stage is cancelled with interrupt=true.
func Submit[T any](exec Executor, fn func(context.Context) (T, error), opts ...StageOption) *Stage[T] {
	cfg := newStageConfig(opts)
	s := newStage[T](exec, cfg.tracer)
	s.task.runOn(exec, fn)
	return s
}

// SubmitWithContext is Submit, except ctx is wired into the returned
// stage's cancellation the way the teacher's own Executor.WithContext
// propagates a caller context into an Execution: a goroutine races ctx
// against the stage's own completion, and cancels the stage with
// interrupt=true if ctx is done first. fn's own context is derived from
// ctx, so a well-behaved fn observes the same cancellation directly via
// ctx.Done() as well.
func SubmitWithContext[T any](ctx context.Context, exec Executor, fn func(context.Context) (T, error), opts ...StageOption) *Stage[T] {
	cfg := newStageConfig(opts)
	s := newStageWithContext[T](ctx, exec, cfg.tracer)
	s.task.runOn(exec, fn)

	go func() {
		select {
		case <-ctx.Done():
			s.Cancel(true)
		case <-s.registry.doneCh:
		}
	}()

	return s
}

// Completed returns a stage that has already succeeded with value. exec
// becomes the stage's defaultExecutor, used by any *Async combinator
// chained off it without its own explicit executor.
func Completed[T any](exec Executor, value T, opts ...StageOption) *Stage[T] {
	cfg := newStageConfig(opts)
	s := newStage[T](exec, cfg.tracer)
	s.task.forceComplete(value, nil)
	return s
}

// Failed returns a stage that has already failed with err.
func Failed[T any](exec Executor, err error, opts ...StageOption) *Stage[T] {
	cfg := newStageConfig(opts)
	s := newStage[T](exec, cfg.tracer)
	s.task.forceComplete(zeroOf[T](), wrapComposition(err))
	return s
}
