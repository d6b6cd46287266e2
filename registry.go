package cascade

import "sync"

// subscriber is a single consumer registered on a registry: it receives
// either onSuccess or onFailure, dispatched on exec, exactly once.
type subscriber[T any] struct {
	onSuccess func(T)
	onFailure func(error)
	exec      Executor
}

// registry is the per-stage mailbox described in spec.md §4.B: a
// multi-consumer fan-out with fire-once semantics and immediate dispatch
// for subscribers who arrive after the stage has already terminated.
//
// The snapshot-then-unlock pattern (copy the pending subscriber list under
// the lock, release it, then dispatch) is the same shape as
// callback.Registry.ExecuteSuccess in the corpus: never invoke a consumer
// while holding the lock that guards registration.
type registry[T any] struct {
	mu          sync.Mutex
	done        bool
	value       T
	err         error
	subscribers []subscriber[T]
	doneCh      chan struct{}
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{doneCh: make(chan struct{})}
}

// addCallback records a consumer. If the registry has already reached a
// terminal outcome, the consumer is dispatched immediately on exec
// instead of being queued (spec.md §3 invariant 3).
func (r *registry[T]) addCallback(onSuccess func(T), onFailure func(error), exec Executor) {
	r.mu.Lock()
	if r.done {
		value, err := r.value, r.err
		r.mu.Unlock()
		dispatch(exec, onSuccess, onFailure, value, err)
		return
	}
	r.subscribers = append(r.subscribers, subscriber[T]{onSuccess, onFailure, exec})
	r.mu.Unlock()
}

func (r *registry[T]) success(value T) {
	r.complete(value, nil)
}

func (r *registry[T]) failure(err error) {
	var zero T
	r.complete(zero, err)
}

// complete is the single fire point: the second of success/failure to
// arrive for a given registry is silently ignored (spec.md §3 invariant
// 1), and every currently-registered subscriber is fanned out exactly
// once.
func (r *registry[T]) complete(value T, err error) {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return
	}
	r.done = true
	r.value = value
	r.err = err
	subs := r.subscribers
	r.subscribers = nil
	close(r.doneCh)
	r.mu.Unlock()

	for _, s := range subs {
		dispatch(s.exec, s.onSuccess, s.onFailure, value, err)
	}
}

// snapshot returns the terminal outcome and whether one has been reached
// yet, without blocking.
func (r *registry[T]) snapshot() (value T, err error, done bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.err, r.done
}

func dispatch[T any](exec Executor, onSuccess func(T), onFailure func(error), value T, err error) {
	_ = exec.Submit(func() {
		if err != nil {
			if onFailure != nil {
				onFailure(err)
			}
			return
		}
		if onSuccess != nil {
			onSuccess(value)
		}
	})
}
