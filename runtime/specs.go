package runtime

import (
	"context"

	"github.com/pipebase/pipebase/runtime/ctxstore"
	"github.com/pipebase/pipebase/runtime/kernel"
)

// RunFunc is a pipe's blocking worker loop, ready to be started in its own
// goroutine. It returns when the pipe's upstream channel closes or ctx is
// cancelled.
type RunFunc func(ctx context.Context, errs chan<- kernel.PipeError)

// PipeSpec is what a generated app_gen.go builds one of per manifest pipe.
// Wire is synchronous: it declares this pipe's output channel(s) in reg,
// looks up its own inbound channel, and registers a Context handle with
// store, all before any pipe goroutine starts. Supervisor calls Wire for
// every pipe, in the topological order codegen computed (producers before
// consumers, see App.Pipes), and only starts the returned RunFunc
// goroutines once every Wire call has returned — so every Lookup is
// guaranteed to find a channel a prior Wire call already Declared.
//
// The registry keys every channel by the name of the single pipe that
// reads it: a non-selector producer Declares its one output channel under
// its one consumer's name (fan-out belongs to the Selector kind alone,
// and checkSingleConsumer in internal/manifest/validator.go rejects any
// manifest naming the same non-selector upstream from more than one
// pipe); a consumer always Looks up its own name. A Selector
// Declares one such channel per downstream consumer it names.
type PipeSpec interface {
	Name() string
	Wire(reg *ChannelRegistry, store *ctxstore.Store) RunFunc
}

// ListenerSpec wraps a source pipe with no upstream. Consumer is the one
// pipe that reads this listener's output.
type ListenerSpec[T any] struct {
	PipeName  string
	Consumer  string
	Buffer    int
	Component kernel.Listener[T]
}

func (s ListenerSpec[T]) Name() string { return s.PipeName }

func (s ListenerSpec[T]) Wire(reg *ChannelRegistry, store *ctxstore.Store) RunFunc {
	out := Declare[T](reg, s.Consumer, s.Buffer)
	h := kernel.NewHandle()
	store.Register(s.PipeName, h)
	return func(ctx context.Context, errs chan<- kernel.PipeError) {
		kernel.RunListener(ctx, s.PipeName, s.Component, out, h, errs)
	}
}

// PollerSpec wraps a source pipe driven on a schedule.
type PollerSpec[T any] struct {
	PipeName  string
	Consumer  string
	Buffer    int
	Component kernel.Poller[T]
}

func (s PollerSpec[T]) Name() string { return s.PipeName }

func (s PollerSpec[T]) Wire(reg *ChannelRegistry, store *ctxstore.Store) RunFunc {
	out := Declare[T](reg, s.Consumer, s.Buffer)
	h := kernel.NewHandle()
	store.Register(s.PipeName, h)
	return func(ctx context.Context, errs chan<- kernel.PipeError) {
		kernel.RunPoller(ctx, s.PipeName, s.Component, out, h, errs)
	}
}

// MapperSpec wraps a one-to-one transform pipe.
// Consumer is empty when nothing downstream reads this mapper's output.
type MapperSpec[T, U any] struct {
	PipeName  string
	Consumer  string
	Buffer    int
	Component kernel.Mapper[T, U]
}

func (s MapperSpec[T, U]) Name() string { return s.PipeName }

func (s MapperSpec[T, U]) Wire(reg *ChannelRegistry, store *ctxstore.Store) RunFunc {
	in := Lookup[T](reg, s.PipeName)
	out := Declare[U](reg, s.Consumer, s.Buffer)
	h := kernel.NewHandle()
	store.Register(s.PipeName, h)
	return func(ctx context.Context, errs chan<- kernel.PipeError) {
		kernel.RunMapper(ctx, s.PipeName, s.Component, in, out, h, errs)
	}
}

// CollectorSpec wraps a batching pipe.
type CollectorSpec[T, U any] struct {
	PipeName  string
	Consumer  string
	Buffer    int
	Component kernel.Collector[T, U]
}

func (s CollectorSpec[T, U]) Name() string { return s.PipeName }

func (s CollectorSpec[T, U]) Wire(reg *ChannelRegistry, store *ctxstore.Store) RunFunc {
	in := Lookup[T](reg, s.PipeName)
	out := Declare[U](reg, s.Consumer, s.Buffer)
	h := kernel.NewHandle()
	store.Register(s.PipeName, h)
	return func(ctx context.Context, errs chan<- kernel.PipeError) {
		kernel.RunCollector(ctx, s.PipeName, s.Component, in, out, h, errs)
	}
}

// StreamerSpec wraps a one-to-many expansion pipe.
type StreamerSpec[T, U any] struct {
	PipeName  string
	Consumer  string
	Buffer    int
	Component kernel.Streamer[T, U]
}

func (s StreamerSpec[T, U]) Name() string { return s.PipeName }

func (s StreamerSpec[T, U]) Wire(reg *ChannelRegistry, store *ctxstore.Store) RunFunc {
	in := Lookup[T](reg, s.PipeName)
	out := Declare[U](reg, s.Consumer, s.Buffer)
	h := kernel.NewHandle()
	store.Register(s.PipeName, h)
	return func(ctx context.Context, errs chan<- kernel.PipeError) {
		kernel.RunStreamer(ctx, s.PipeName, s.Component, in, out, h, errs)
	}
}

// SelectorSpec wraps an explicit fan-out pipe. Consumers
// names every downstream pipe that lists this selector as upstream, in
// manifest declaration order; candidate index i in kernel.Selector
// corresponds to Consumers[i].
type SelectorSpec[T any] struct {
	PipeName  string
	Consumers []string
	Buffer    int
	Component kernel.Selector[T]
}

func (s SelectorSpec[T]) Name() string { return s.PipeName }

func (s SelectorSpec[T]) Wire(reg *ChannelRegistry, store *ctxstore.Store) RunFunc {
	in := Lookup[T](reg, s.PipeName)
	outs := make([]chan<- T, len(s.Consumers))
	for i, name := range s.Consumers {
		outs[i] = Declare[T](reg, name, s.Buffer)
	}
	h := kernel.NewHandle()
	store.Register(s.PipeName, h)
	return func(ctx context.Context, errs chan<- kernel.PipeError) {
		kernel.RunSelector(ctx, s.PipeName, s.Component, in, outs, h, errs)
	}
}

// ExporterSpec wraps a terminal sink pipe.
type ExporterSpec[T any] struct {
	PipeName  string
	Component kernel.Exporter[T]
}

func (s ExporterSpec[T]) Name() string { return s.PipeName }

func (s ExporterSpec[T]) Wire(reg *ChannelRegistry, store *ctxstore.Store) RunFunc {
	in := Lookup[T](reg, s.PipeName)
	h := kernel.NewHandle()
	store.Register(s.PipeName, h)
	return func(ctx context.Context, errs chan<- kernel.PipeError) {
		kernel.RunExporter(ctx, s.PipeName, s.Component, in, h, errs)
	}
}
