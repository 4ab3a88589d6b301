package kernel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type doubleMapper struct{}

func (doubleMapper) Map(_ context.Context, t int) (int, error) {
	return t * 2, nil
}

type faultyMapper struct{}

func (faultyMapper) Map(_ context.Context, t int) (int, error) {
	if t%2 == 1 {
		return 0, fmt.Errorf("odd input %d", t)
	}
	return t, nil
}

func drain[T any](ch <-chan T) []T {
	var out []T
	for v := range ch {
		out = append(out, v)
	}
	return out
}

func TestRunMapperForwardsInOrder(t *testing.T) {
	t.Parallel()

	in := make(chan int, 8)
	out := make(chan int, 8)
	h := NewHandle()

	for i := range 6 {
		in <- i
	}
	close(in)

	done := make(chan struct{})
	go func() {
		defer close(done)
		RunMapper[int, int](context.Background(), "double", doubleMapper{}, in, out, h, nil)
	}()

	got := drain(out)
	<-done

	// FIFO, no loss, no reorder.
	require.Equal(t, []int{0, 2, 4, 6, 8, 10}, got)

	c := h.Snapshot()
	require.Equal(t, StateDone, c.State)
	require.Equal(t, uint64(6), c.TotalRun)
	require.Equal(t, uint64(6), c.SuccessRun)
}

func TestRunMapperBackpressure(t *testing.T) {
	t.Parallel()

	// A buffer of one forces the mapper to block on send; the slow
	// consumer must still observe every record in order.
	in := make(chan int, 1)
	out := make(chan int, 1)
	h := NewHandle()

	go func() {
		for i := range 64 {
			in <- i
		}
		close(in)
	}()
	go RunMapper[int, int](context.Background(), "identity", doubleMapper{}, in, out, h, nil)

	var got []int
	for v := range out {
		got = append(got, v)
		time.Sleep(time.Millisecond)
	}
	require.Len(t, got, 64)
	for i, v := range got {
		require.Equal(t, i*2, v)
	}
}

func TestRunMapperLocalizesErrors(t *testing.T) {
	t.Parallel()

	in := make(chan int, 8)
	out := make(chan int, 8)
	errs := make(chan PipeError, 8)
	h := NewHandle()

	for i := range 6 {
		in <- i
	}
	close(in)

	RunMapper[int, int](context.Background(), "faulty", faultyMapper{}, in, out, h, errs)

	// Odd inputs error; even inputs are delivered regardless.
	require.Equal(t, []int{0, 2, 4}, drain(out))

	close(errs)
	var reported []PipeError
	for e := range errs {
		reported = append(reported, e)
	}
	require.Len(t, reported, 3)
	for _, e := range reported {
		require.Equal(t, "faulty", e.PipeName)
		require.Contains(t, e.Error(), "odd input")
	}

	c := h.Snapshot()
	require.Equal(t, uint64(6), c.TotalRun)
	require.Equal(t, uint64(3), c.SuccessRun)
}

type countingPoller struct {
	ticks int
	limit int
}

func (p *countingPoller) InitialDelay() time.Duration { return 0 }
func (p *countingPoller) Interval() time.Duration     { return time.Millisecond }

func (p *countingPoller) Poll(_ context.Context) (PollOutcome[int], error) {
	if p.ticks >= p.limit {
		return PollOutcome[int]{Exit: true}, nil
	}
	v := p.ticks
	p.ticks++
	return PollOutcome[int]{Value: &v}, nil
}

func TestRunPollerExitsAfterLimit(t *testing.T) {
	t.Parallel()

	out := make(chan int, 16)
	h := NewHandle()

	RunPoller[int](context.Background(), "ticker", &countingPoller{limit: 5}, out, h, nil)

	require.Equal(t, []int{0, 1, 2, 3, 4}, drain(out))

	c := h.Snapshot()
	require.Equal(t, StateDone, c.State)
	require.GreaterOrEqual(t, c.TotalRun, uint64(5))
	require.Equal(t, uint64(5), c.SuccessRun)
}

type skipPoller struct {
	calls int
}

func (p *skipPoller) InitialDelay() time.Duration { return 0 }
func (p *skipPoller) Interval() time.Duration     { return time.Millisecond }

func (p *skipPoller) Poll(_ context.Context) (PollOutcome[int], error) {
	p.calls++
	switch {
	case p.calls > 4:
		return PollOutcome[int]{Exit: true}, nil
	case p.calls%2 == 0:
		v := p.calls
		return PollOutcome[int]{Value: &v}, nil
	default:
		// A nil value is a no-op tick.
		return PollOutcome[int]{}, nil
	}
}

func TestRunPollerSkipsEmptyTicks(t *testing.T) {
	t.Parallel()

	out := make(chan int, 16)
	h := NewHandle()

	RunPoller[int](context.Background(), "sparse", &skipPoller{}, out, h, nil)

	require.Equal(t, []int{2, 4}, drain(out))
}

type joinCollector struct {
	parts []string
}

func (c *joinCollector) FlushInterval() time.Duration { return 50 * time.Millisecond }

func (c *joinCollector) Collect(_ context.Context, s string) error {
	c.parts = append(c.parts, s)
	return nil
}

func (c *joinCollector) Flush(_ context.Context) (*string, error) {
	if len(c.parts) == 0 {
		return nil, nil
	}
	joined := strings.Join(c.parts, ",")
	c.parts = nil
	return &joined, nil
}

func TestRunCollectorFinalFlush(t *testing.T) {
	t.Parallel()

	in := make(chan string, 4)
	out := make(chan string, 4)
	h := NewHandle()

	in <- "a"
	in <- "b"
	in <- "c"
	close(in)

	RunCollector[string, string](context.Background(), "join", &joinCollector{}, in, out, h, nil)

	// The upstream closed before the first interval tick; the final flush
	// still emits the batch.
	require.Equal(t, []string{"a,b,c"}, drain(out))
}

type explodeStreamer struct{}

func (explodeStreamer) Stream(ctx context.Context, t int, emit func(context.Context, int) error) error {
	for i := range t {
		if err := emit(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

func TestRunStreamerExpands(t *testing.T) {
	t.Parallel()

	in := make(chan int, 4)
	out := make(chan int, 16)
	h := NewHandle()

	in <- 3
	in <- 0
	in <- 2
	close(in)

	RunStreamer[int, int](context.Background(), "explode", explodeStreamer{}, in, out, h, nil)

	require.Equal(t, []int{0, 1, 2, 0, 1}, drain(out))

	c := h.Snapshot()
	require.Equal(t, uint64(3), c.TotalRun)
	require.Equal(t, uint64(3), c.SuccessRun)
}

type recordingExporter struct {
	got  []int
	fail error
}

func (e *recordingExporter) Export(_ context.Context, t int) error {
	if e.fail != nil && t%2 == 1 {
		return e.fail
	}
	e.got = append(e.got, t)
	return nil
}

func TestRunExporterContinuesOnError(t *testing.T) {
	t.Parallel()

	in := make(chan int, 8)
	errs := make(chan PipeError, 8)
	h := NewHandle()

	for i := range 4 {
		in <- i
	}
	close(in)

	exp := &recordingExporter{fail: errors.New("sink unavailable")}
	RunExporter[int](context.Background(), "sink", exp, in, h, errs)

	require.Equal(t, []int{0, 2}, exp.got)
	require.Len(t, errs, 2)

	c := h.Snapshot()
	require.Equal(t, StateDone, c.State)
	require.Equal(t, uint64(4), c.TotalRun)
	require.Equal(t, uint64(2), c.SuccessRun)
}

type emittingListener struct {
	values []string
}

func (l emittingListener) Listen(ctx context.Context, emit func(context.Context, string) error) error {
	for _, v := range l.values {
		if err := emit(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func TestRunListenerClosesOnExit(t *testing.T) {
	t.Parallel()

	out := make(chan string, 8)
	h := NewHandle()

	RunListener[string](context.Background(), "feed", emittingListener{values: []string{"x", "y"}}, out, h, nil)

	require.Equal(t, []string{"x", "y"}, drain(out))
	require.Equal(t, StateDone, h.Snapshot().State)
}

func TestReportErrorNeverBlocks(t *testing.T) {
	t.Parallel()

	errs := make(chan PipeError, 1)
	reportError(errs, "p", errors.New("first"))
	// The channel is full; the second report is dropped instead of
	// stalling the caller.
	reportError(errs, "p", errors.New("second"))
	require.Len(t, errs, 1)

	reportError(nil, "p", errors.New("ignored"))
	reportError(errs, "p", nil)
	require.Len(t, errs, 1)
}
