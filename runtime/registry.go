// Package runtime holds the generated-program glue that sits between
// codegen's output and the kernel: a registry of the typed channels a
// manifest's edges become, and one PipeSpec wrapper type per pipe kind that
// a generated app_gen.go instantiates with concrete record types.
package runtime

import (
	"fmt"
	"sync"
)

// ChannelRegistry holds every manifest edge's backing Go channel, keyed by
// the name of the pipe that consumes it. Declare and Lookup are generic over
// the record type because the registry itself must stay untyped (a single
// manifest wires record types that differ pipe to pipe); the generated
// program supplies the concrete T at each call site, so the type assertion
// inside Lookup can never fail for a manifest codegen itself produced.
type ChannelRegistry struct {
	mu     sync.Mutex
	chans  map[string]any
	closed map[string]bool
}

func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{chans: make(map[string]any), closed: make(map[string]bool)}
}

// Declare creates (or returns the existing) buffered channel for name.
// Called from the producing pipe's Wire with its consumer's name; a
// Selector calls it once per downstream consumer.
func Declare[T any](r *ChannelRegistry, name string, buffer int) chan T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.chans[name]; ok {
		return existing.(chan T)
	}
	ch := make(chan T, buffer)
	r.chans[name] = ch
	return ch
}

// Lookup retrieves the channel previously Declared under name. Panics on a
// type mismatch, which can only happen if codegen emitted an App whose
// pipe-spec type parameters disagree with the validated manifest's
// resolved field types — a codegen defect, not a runtime condition callers
// should recover from.
func Lookup[T any](r *ChannelRegistry, name string) chan T {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.chans[name]
	if !ok {
		panic(fmt.Sprintf("runtime: no channel declared for upstream %q", name))
	}
	return v.(chan T)
}
