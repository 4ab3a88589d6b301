package kernel

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
)

// RunSelector drives Selector sel, routing each input record to whichever
// subset of outs it chooses. Select returning an empty or
// out-of-range subset is a contract violation, not a per-record failure:
// it is surfaced as a panic so the Supervisor's recover converts it to a
// SupervisorFatal, the same way an out-of-bounds candidate
// index would corrupt the graph if tolerated silently.
func RunSelector[T any](ctx context.Context, pipeName string, sel Selector[T], in <-chan T, outs []chan<- T, h *Handle, errs chan<- PipeError) {
	defer func() {
		for _, o := range outs {
			close(o)
		}
	}()
	w := newWriter(h)

	candidates := make([]int, len(outs))
	for i := range candidates {
		candidates[i] = i
	}

	for {
		w.setState(StateReceive)
		select {
		case t, ok := <-in:
			if !ok {
				w.setState(StateDone)
				return
			}
			w.setState(StateProcess)
			chosen, err := sel.Select(ctx, t, candidates)
			if err != nil {
				w.failure()
				reportError(errs, pipeName, err)
				continue
			}
			if len(chosen) == 0 {
				panic(fmt.Sprintf("pipe %q: selector returned an empty subset", pipeName))
			}

			w.setState(StateSend)
			sent := 0
			for _, idx := range chosen {
				if idx < 0 || idx >= len(outs) {
					panic(fmt.Sprintf("pipe %q: selector returned out-of-range index %d", pipeName, idx))
				}
				select {
				case outs[idx] <- t:
					sent++
				case <-ctx.Done():
					w.setState(StateDone)
					return
				}
			}
			if sent > 0 {
				w.success()
			}
		case <-ctx.Done():
			w.setState(StateDone)
			return
		}
	}
}

// BroadcastSelector sends every record to every downstream candidate
//. Stateless, safe to share.
type BroadcastSelector[T any] struct{}

func (BroadcastSelector[T]) Select(_ context.Context, _ T, candidates []int) ([]int, error) {
	chosen := make([]int, len(candidates))
	copy(chosen, candidates)
	return chosen, nil
}

// RoundRobinSelector cycles through candidates one at a time. Select is
// only ever called from the owning pipe task's single goroutine, so the
// cursor needs no lock.
type RoundRobinSelector[T any] struct {
	next int
}

func NewRoundRobinSelector[T any]() *RoundRobinSelector[T] {
	return &RoundRobinSelector[T]{}
}

func (s *RoundRobinSelector[T]) Select(_ context.Context, _ T, candidates []int) ([]int, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("round robin selector: no candidates")
	}
	idx := candidates[s.next%len(candidates)]
	s.next++
	return []int{idx}, nil
}

// RandomSelector picks one candidate uniformly at random per record.
type RandomSelector[T any] struct {
	rng *rand.Rand
}

// NewRandomSelector seeds a selector-local PRNG, so two instances never
// share generator state and a fixed seed reproduces a routing sequence.
func NewRandomSelector[T any](seed uint64) *RandomSelector[T] {
	return &RandomSelector[T]{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *RandomSelector[T]) Select(_ context.Context, _ T, candidates []int) ([]int, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("random selector: no candidates")
	}
	idx := candidates[s.rng.IntN(len(candidates))]
	return []int{idx}, nil
}

// HashSelector routes by the xxhash of a caller-supplied key, so records
// sharing a key always land on the same downstream candidate.
type HashSelector[T any] struct {
	keyFn func(T) []byte
}

func NewHashSelector[T any](keyFn func(T) []byte) *HashSelector[T] {
	return &HashSelector[T]{keyFn: keyFn}
}

func (s *HashSelector[T]) Select(_ context.Context, t T, candidates []int) ([]int, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("hash selector: no candidates")
	}
	sum := xxhash.Sum64(s.keyFn(t))
	idx := candidates[sum%uint64(len(candidates))]
	return []int{idx}, nil
}
