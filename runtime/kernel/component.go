package kernel

import (
	"context"
	"time"
)

// The capability interfaces below are the component surface of the seven
// pipe kinds (Listen/Poll/Map/Collect/Stream/Select/
// Export). Each pipe kind gets exactly one capability, implemented by one
// generic type parameterized on the record type(s) it moves, so dispatch is
// a closed sum (one worker-loop function per kind, see task.go) rather than
// an open class hierarchy.
//
// Record clone semantics: a Go channel send always copies the value
// handed to it, so for the fan-out Selector cloning is automatic as long
// as the record type is a plain value (a struct, not a pointer or a type
// embedding shared mutable state).

// Listener drives an external, unbounded event source. It owns the
// responsibility of calling emit for every record until the source is
// exhausted or ctx is cancelled; Listen returning ends the task.
type Listener[T any] interface {
	Listen(ctx context.Context, emit func(context.Context, T) error) error
}

// PollOutcome is the result of one Poller tick.
type PollOutcome[T any] struct {
	Exit  bool
	Value *T // nil means "no-op tick"
}

// Poller is ticked on a fixed schedule; InitialDelay/Interval configure
// that schedule.
type Poller[T any] interface {
	InitialDelay() time.Duration
	Interval() time.Duration
	Poll(ctx context.Context) (PollOutcome[T], error)
}

// Mapper transforms one input record into one output record.
type Mapper[T, U any] interface {
	Map(ctx context.Context, t T) (U, error)
}

// Collector aggregates input records and emits on a timer, a batching
// mapper.
type Collector[T, U any] interface {
	FlushInterval() time.Duration
	Collect(ctx context.Context, t T) error
	Flush(ctx context.Context) (*U, error)
}

// Streamer maps one input to zero or more outputs, pushed through emit.
type Streamer[T, U any] interface {
	Stream(ctx context.Context, t T, emit func(context.Context, U) error) error
}

// Selector chooses a non-empty subset of candidate downstream indices for
// each record. candidates is always [0, K).
type Selector[T any] interface {
	Select(ctx context.Context, t T, candidates []int) ([]int, error)
}

// Exporter is a terminal sink.
type Exporter[T any] interface {
	Export(ctx context.Context, t T) error
}

// Config is the uniform two-step build capability: load a config
// value from a file (or defaults when path is empty), then construct a
// component from it. No kernel code calls FromPath, and the built-in
// components in runtime/components do not implement it: they run the same
// two steps through components.LoadConfig inside their NewXxx(path)
// constructors.
type Config[C any] interface {
	FromPath(path string) (C, error)
}
