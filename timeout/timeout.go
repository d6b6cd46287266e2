// Package timeout is an orthogonal decorator over a cascade.Stage: it
// starts a timer racing the stage's own completion and cancels the stage
// if the timer wins (spec.md §1 Non-goals: "automatic timeouts are an
// orthogonal decorator", not part of the core). It mirrors the teacher's
// own timeoutExecutor design — a time.AfterFunc racing against normal
// completion, guarded by a single atomic CAS so only the first of the two
// outcomes acts — adapted from a PolicyExecutor wrapping an inner fn to a
// plain subscriber wrapping a Stage.
package timeout

import (
	"sync/atomic"
	"time"

	"github.com/cascadefuture/cascade"
)

// Watch starts a timer of duration d. If the stage has not reached a
// terminal state by the time the timer fires, Watch cancels it with
// interrupt set. The stage still fails with the ordinary
// *cascade.CancellationError in this case — the taxonomy has no distinct
// timeout error, so the cause is indistinguishable from any other
// cancellation once observed downstream.
//
// Watch returns a stop function that cancels the timer early; callers
// that already hold a handle on the stage rarely need it, since Watch
// stops its own timer as soon as the stage completes on its own.
func Watch[T any](stage *cascade.Stage[T], d time.Duration) (stop func()) {
	var fired atomic.Bool
	timer := time.AfterFunc(d, func() {
		if fired.CompareAndSwap(false, true) {
			stage.Cancel(true)
		}
	})

	stage.Subscribe(
		func(T) {
			if fired.CompareAndSwap(false, true) {
				timer.Stop()
			}
		},
		func(error) {
			if fired.CompareAndSwap(false, true) {
				timer.Stop()
			}
		},
	)

	return func() {
		if fired.CompareAndSwap(false, true) {
			timer.Stop()
		}
	}
}
