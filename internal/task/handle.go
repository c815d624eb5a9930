package task

import "sync/atomic"

const (
	stateQueued int32 = iota
	stateRunning
	stateDone
	stateAbandoned
)

// Handle tracks one unit of background work and its result.
//
// A handle executes at most once: either a pool worker claims it, or Wait
// claims it first and runs it inline. Cancel abandons work that has not
// started yet and otherwise waits for it, so after Cancel returns fn is
// guaranteed not to be running.
type Handle[T any] struct {
	fn     func() T
	onDone func()

	state  atomic.Int32
	done   chan struct{}
	result T
}

// NewHandle returns a queued handle. Nothing runs until a pool or Wait
// claims it.
func NewHandle[T any](fn func() T, onDone func()) *Handle[T] {
	return &Handle[T]{fn: fn, onDone: onDone, done: make(chan struct{})}
}

func (h *Handle[T]) run() {
	if h.state.CompareAndSwap(stateQueued, stateRunning) {
		h.execute()
	}
}

// execute publishes the result before the callback runs, so a callback that
// notifies another goroutine never lets it observe an unfinished handle.
// Waiters are released only after the callback returns.
func (h *Handle[T]) execute() {
	h.result = h.fn()
	h.state.Store(stateDone)
	if h.onDone != nil {
		h.onDone()
	}
	close(h.done)
}

// IsDone reports whether the work ran to completion.
func (h *Handle[T]) IsDone() bool {
	return h.state.Load() == stateDone
}

// Result returns the result if the work has completed.
func (h *Handle[T]) Result() (T, bool) {
	if !h.IsDone() {
		var zero T
		return zero, false
	}
	return h.result, true
}

// Wait blocks until the work completes and returns its result. Work still
// queued runs on the calling goroutine. An abandoned handle yields the zero
// value.
func (h *Handle[T]) Wait() T {
	if h.state.CompareAndSwap(stateQueued, stateRunning) {
		h.execute()
	} else {
		<-h.done
	}
	return h.result
}

// Cancel abandons queued work or waits for running work. The result, if any,
// is discarded by the caller.
func (h *Handle[T]) Cancel() {
	if h.state.CompareAndSwap(stateQueued, stateAbandoned) {
		close(h.done)
		return
	}
	<-h.done
}
