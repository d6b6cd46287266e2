package cascade

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Cancellable is the narrow view of a Stage the cancellation graph needs:
// enough to recurse into a dependency without that dependency's value
// type leaking into the generic Stage[T] that depends on it. Stage[T]
// satisfies Cancellable for every T.
type Cancellable interface {
	Cancel(interrupt bool) bool
	IsCancelled() bool
	IsDone() bool
}

// Stage is the central entity of the combinator engine: a value-producing,
// cancellable asynchronous computation exposing the combinator surface in
// apply.go, compose.go, combine.go, either.go, recover.go, finalize.go and
// handle.go. See spec.md §3 for the full invariant list.
type Stage[T any] struct {
	id              uuid.UUID
	task            *task[T]
	registry        *registry[T]
	defaultExecutor Executor
	tracer          zerolog.Logger

	depLock             sync.Mutex
	dependencies        []Cancellable
	interruptedOnCancel bool
}

// newStage allocates a stage with a fresh task and registry, wired
// together so the task's terminal outcome feeds the registry directly.
func newStage[T any](defaultExecutor Executor, tracer zerolog.Logger) *Stage[T] {
	s := &Stage[T]{
		id:              uuid.New(),
		registry:        newRegistry[T](),
		defaultExecutor: defaultExecutor,
		tracer:          tracer,
	}
	s.task = newTask[T](s.onSucceed, s.onFail)
	return s
}

// newStageWithContext is newStage, except the task's own context is
// derived from parent instead of context.Background() (spec.md §4.H,
// SubmitWithContext): cancelling parent cancels the task's context the
// same way an explicit Cancel(true) would.
func newStageWithContext[T any](parent context.Context, defaultExecutor Executor, tracer zerolog.Logger) *Stage[T] {
	s := &Stage[T]{
		id:              uuid.New(),
		registry:        newRegistry[T](),
		defaultExecutor: defaultExecutor,
		tracer:          tracer,
	}
	s.task = newTaskWithParent[T](parent, s.onSucceed, s.onFail)
	return s
}

func (s *Stage[T]) onSucceed(value T) {
	s.tracer.Debug().Str("stage", s.id.String()).Msg("succeeded")
	s.registry.success(value)
}

func (s *Stage[T]) onFail(err error) {
	s.tracer.Debug().Str("stage", s.id.String()).Err(err).Msg("failed")
	s.registry.failure(err)
}

// withRootDependency records parent as the stage's sole dependency at
// construction time (spec.md §4.D, "root dependency at construction").
// It returns s so constructors can chain it.
func (s *Stage[T]) withRootDependency(parent Cancellable) *Stage[T] {
	if parent == nil {
		return s
	}
	s.depLock.Lock()
	s.dependencies = []Cancellable{parent}
	s.depLock.Unlock()
	return s
}

// addDependency appends an additional dependency (used by the either
// family, which records both candidate upstreams).
func (s *Stage[T]) addDependency(dep Cancellable) {
	s.depLock.Lock()
	s.dependencies = append(s.dependencies, dep)
	s.depLock.Unlock()
}

// installSoleDependency replaces the dependency list with exactly [dep],
// unless this stage is already Cancelled — in which case dep is cancelled
// immediately with the latched interrupt intent instead of being
// recorded, since it would never be walked again (spec.md §4.D, the
// compose inner-stage race).
func (s *Stage[T]) installSoleDependency(dep Cancellable) {
	s.depLock.Lock()
	if s.task.loadState() == stateCancelled {
		interrupt := s.interruptedOnCancel
		s.depLock.Unlock()
		dep.Cancel(interrupt)
		return
	}
	s.dependencies = []Cancellable{dep}
	s.depLock.Unlock()
}

// resolveExecutor substitutes the stage's own default executor whenever
// exec is nil. Combinators pass Inline explicitly here for their bare-name
// (inline-on-completer) variant, which resolveExecutor must leave alone;
// the substitution spec.md §3 describes for INLINE applies only to a new
// stage's defaultExecutor field, which newStage always receives as the
// parent's s.defaultExecutor rather than as a literal Inline passed by the
// combinator (a root stage created with Inline as its executor, such as
// Completed(Inline, v), still hands Inline on to its successors).
func (s *Stage[T]) resolveExecutor(exec Executor) Executor {
	if exec == nil {
		return s.defaultExecutor
	}
	return exec
}

// Cancel attempts the Pending/Running -> Cancelled transition. It returns
// true only if this call performed the transition, in which case it
// latches interrupt as this stage's interruptedOnCancel and recursively
// cancels every recorded dependency with the same flag, then fails the
// registry with a CancellationError (spec.md §3 invariants 4 and 5).
func (s *Stage[T]) Cancel(interrupt bool) bool {
	if !s.task.cancel(interrupt) {
		return false
	}

	s.depLock.Lock()
	deps := make([]Cancellable, len(s.dependencies))
	copy(deps, s.dependencies)
	s.interruptedOnCancel = interrupt
	s.depLock.Unlock()

	for _, dep := range deps {
		dep.Cancel(interrupt)
	}

	s.registry.failure(newCancellationError())
	return true
}

// IsCancelled reports whether this stage has reached the Cancelled
// terminal state.
func (s *Stage[T]) IsCancelled() bool {
	return s.task.loadState() == stateCancelled
}

// IsDone reports whether this stage has reached any terminal state.
func (s *Stage[T]) IsDone() bool {
	switch s.task.loadState() {
	case stateSucceeded, stateFailed, stateCancelled:
		return true
	default:
		return false
	}
}

// Get blocks until the stage reaches a terminal state and returns its
// value, or the zero value and an error. A CompositionError envelope is
// stripped one level so the caller sees the original cause (spec.md §7).
func (s *Stage[T]) Get() (T, error) {
	return s.GetContext(context.Background())
}

// GetTimeout is Get bounded by a timeout; if the timeout elapses first,
// the returned error is context.DeadlineExceeded and the stage itself is
// left untouched (this accessor does not cancel the stage).
func (s *Stage[T]) GetTimeout(d time.Duration) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return s.GetContext(ctx)
}

// GetContext is Get bounded by a caller-supplied context.
func (s *Stage[T]) GetContext(ctx context.Context) (T, error) {
	select {
	case <-s.registry.doneCh:
		value, err, _ := s.registry.snapshot()
		return value, unwrapOneLevel(err)
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Subscribe registers a bridge callback dispatched Inline as soon as the
// stage reaches a terminal state (or immediately, if it already has). It
// is the narrow surface the cfuture export adapter uses; ordinary
// combinators use the unexported registry directly instead.
func (s *Stage[T]) Subscribe(onSuccess func(T), onFailure func(error)) {
	s.registry.addCallback(onSuccess, onFailure, Inline)
}

// String returns a short diagnostic identifier for the stage. It is never
// used for equality or lookup — two stages are always distinguished by
// pointer identity.
func (s *Stage[T]) String() string {
	return "cascade.Stage(" + s.id.String() + ")"
}
