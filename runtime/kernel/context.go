// Package kernel implements the per-pipe task state machine, the fan-out
// selector, and the fan-in channel wiring contract. Every pipe kind is a
// generic worker-loop function rather than an open class hierarchy: the
// set of kinds is closed, so dispatch is one loop per kind instead of
// subclassing.
package kernel

import "sync/atomic"

// State is a pipe task's position in its state machine.
type State string

const (
	StateInit    State = "init"
	StateReceive State = "receive"
	StatePoll    State = "poll"
	StateProcess State = "process"
	StateSend    State = "send"
	StateDone    State = "done"
)

// Context is the immutable snapshot published by a pipe task. A uint64
// run counter incrementing once per processed record would need roughly
// 584 years at one billion records/second to wrap, so wider counters buy
// nothing here.
type Context struct {
	State      State
	TotalRun   uint64
	SuccessRun uint64
}

// Handle is the reader side given to the Context Store: a lock-free,
// single-writer, many-reader snapshot slot. The writer (the owning pipe
// task) replaces the whole record on every transition rather than mutating
// fields in place, so a reader never observes a torn Context.
type Handle struct {
	ptr atomic.Pointer[Context]
}

// NewHandle returns a Handle pre-populated with a Context in StateInit.
func NewHandle() *Handle {
	h := &Handle{}
	h.ptr.Store(&Context{State: StateInit})
	return h
}

// Snapshot returns the most recently published Context. Safe for concurrent
// use by any number of readers while the writer continues publishing.
func (h *Handle) Snapshot() Context {
	return *h.ptr.Load()
}

func (h *Handle) publish(c Context) {
	h.ptr.Store(&c)
}

// writer is the single mutator of a pipe's Context, held only by the pipe's
// own task goroutine. It tracks local counters and republishes the whole
// record to Handle on every transition.
type writer struct {
	handle  *Handle
	current Context
}

func newWriter(h *Handle) *writer {
	return &writer{handle: h, current: Context{State: StateInit}}
}

// setState records a state transition and republishes.
func (w *writer) setState(s State) {
	w.current.State = s
	w.handle.publish(w.current)
}

// success increments both counters and republishes.
func (w *writer) success() {
	w.current.TotalRun++
	w.current.SuccessRun++
	w.handle.publish(w.current)
}

// failure increments only TotalRun and republishes.
func (w *writer) failure() {
	w.current.TotalRun++
	w.handle.publish(w.current)
}
