package cascade

import (
	"context"
	"fmt"
	"sync/atomic"
)

type taskState int32

const (
	statePending taskState = iota
	stateRunning
	stateSucceeded
	stateFailed
	stateCancelled
)

func (s taskState) String() string {
	switch s {
	case statePending:
		return "Pending"
	case stateRunning:
		return "Running"
	case stateSucceeded:
		return "Succeeded"
	case stateFailed:
		return "Failed"
	case stateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// task is the one-shot cancellable wrapper around a stage's user
// computation (spec.md §4.C). It knows nothing about combinators or the
// cancellation graph; a Stage owns the dependency list and walks it after
// the task itself has transitioned to Cancelled.
type task[T any] struct {
	state      atomic.Int32
	ctx        context.Context
	cancelFunc context.CancelFunc
	onSuccess  func(T)
	onFailure  func(error)
}

func newTask[T any](onSuccess func(T), onFailure func(error)) *task[T] {
	return newTaskWithParent[T](context.Background(), onSuccess, onFailure)
}

// newTaskWithParent derives the task's own cancellable context from parent
// instead of context.Background(), so that cancelling parent (e.g. a
// caller-supplied context passed to SubmitWithContext) cancels the task's
// context the same way an explicit task.cancel(true) would.
func newTaskWithParent[T any](parent context.Context, onSuccess func(T), onFailure func(error)) *task[T] {
	ctx, cancel := context.WithCancel(parent)
	t := &task[T]{
		ctx:        ctx,
		cancelFunc: cancel,
		onSuccess:  onSuccess,
		onFailure:  onFailure,
	}
	t.state.Store(int32(statePending))
	return t
}

func (t *task[T]) loadState() taskState {
	return taskState(t.state.Load())
}

func (t *task[T]) casState(from, to taskState) bool {
	return t.state.CompareAndSwap(int32(from), int32(to))
}

// runOn schedules computation on exec. If the executor rejects the
// submission, the task fails directly with an ExecutorRejectionError. If
// the task has already been cancelled by the time the runnable executes,
// the CAS from Pending to Running fails and the computation is never
// invoked — this is what makes "cancel before start" prevent the
// computation from running at all.
func (t *task[T]) runOn(exec Executor, computation func(context.Context) (T, error)) {
	err := exec.Submit(func() {
		if !t.casState(statePending, stateRunning) {
			return
		}
		value, cerr := t.invoke(computation)
		// The task may have been cancelled while computation was
		// running; its own outcome is then discarded. The same holds
		// when the context was cancelled through a parent context
		// (newTaskWithParent): the stage's own Cancel then decides the
		// terminal state.
		if t.loadState() == stateCancelled || t.ctx.Err() != nil {
			return
		}
		if cerr != nil {
			t.casState(stateRunning, stateFailed)
			t.onFailure(wrapComposition(cerr))
			return
		}
		t.casState(stateRunning, stateSucceeded)
		t.onSuccess(value)
	})
	if err != nil {
		if t.casState(statePending, stateFailed) {
			t.onFailure(wrapComposition(&ExecutorRejectionError{cause: err}))
		}
	}
}

// invoke runs computation, converting a panic into an error so that a
// misbehaving user function cannot take the whole goroutine down with it.
func (t *task[T]) invoke(computation func(context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cascade: computation panicked: %v", r)
		}
	}()
	return computation(t.ctx)
}

// forceComplete drives a task directly to a terminal state without ever
// running a computation. It is how "bogus" successor stages (the
// registry-only stages compose and either install internally) report a
// result that was actually produced by wiring rather than by their own
// task.
func (t *task[T]) forceComplete(value T, err error) {
	if err != nil {
		if t.casState(statePending, stateFailed) || t.casState(stateRunning, stateFailed) {
			t.onFailure(err)
		}
		return
	}
	if t.casState(statePending, stateSucceeded) || t.casState(stateRunning, stateSucceeded) {
		t.onSuccess(value)
	}
}

// cancel attempts the Pending/Running -> Cancelled transition. It returns
// true only if this call performed the transition (spec.md §3 invariant
// 4). A true return with interrupt set also requests cancellation of the
// task's context, which a well-behaved computation observes via ctx.Done.
func (t *task[T]) cancel(interrupt bool) bool {
	ok := t.casState(statePending, stateCancelled)
	if !ok {
		ok = t.casState(stateRunning, stateCancelled)
	}
	if !ok {
		return false
	}
	if interrupt {
		t.cancelFunc()
	}
	return true
}
