package kernel

import (
	"context"
	"time"
)

// reportError delivers a PipeError to the process-wide error channel
// without blocking the pipe task. Error delivery is best-effort telemetry:
// the Error Handler must never stall the pipeline by being slow, and
// symmetrically a momentarily full error channel must never stall a
// producer pipe, so a full channel here drops the report rather than
// blocking.
func reportError(errs chan<- PipeError, pipeName string, err error) {
	if errs == nil || err == nil {
		return
	}
	select {
	case errs <- PipeError{PipeName: pipeName, Err: err}:
	default:
	}
}

// RunListener drives Listener l until it returns or ctx is cancelled,
// forwarding every emitted record to out. Closes out on exit.
func RunListener[T any](ctx context.Context, pipeName string, l Listener[T], out chan<- T, h *Handle, errs chan<- PipeError) {
	defer close(out)
	w := newWriter(h)

	emit := func(c context.Context, t T) error {
		w.setState(StateSend)
		select {
		case out <- t:
			w.success()
			w.setState(StateReceive)
			return nil
		case <-c.Done():
			return c.Err()
		}
	}

	w.setState(StateReceive)
	if err := l.Listen(ctx, emit); err != nil && ctx.Err() == nil {
		reportError(errs, pipeName, err)
	}
	w.setState(StateDone)
}

// RunPoller ticks Poller p on its configured schedule, forwarding produced
// values to out. time.Ticker drops ticks the consumer fell behind on
// rather than queueing them, so a delayed tick never double-fires.
func RunPoller[T any](ctx context.Context, pipeName string, p Poller[T], out chan<- T, h *Handle, errs chan<- PipeError) {
	defer close(out)
	w := newWriter(h)

	initialDelay := p.InitialDelay()
	if initialDelay > 0 {
		timer := time.NewTimer(initialDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			w.setState(StateDone)
			return
		}
	}

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.setState(StateDone)
			return
		case <-ticker.C:
			w.setState(StatePoll)
			outcome, err := p.Poll(ctx)
			if err != nil {
				w.failure()
				reportError(errs, pipeName, err)
				continue
			}
			if outcome.Exit {
				w.setState(StateDone)
				return
			}
			if outcome.Value == nil {
				continue
			}
			w.setState(StateSend)
			select {
			case out <- *outcome.Value:
				w.success()
			case <-ctx.Done():
				w.setState(StateDone)
				return
			}
		}
	}
}

// RunMapper applies Mapper m to every input, forwarding successes and
// reporting failures without interrupting subsequent records.
func RunMapper[T, U any](ctx context.Context, pipeName string, m Mapper[T, U], in <-chan T, out chan<- U, h *Handle, errs chan<- PipeError) {
	defer close(out)
	w := newWriter(h)

	for {
		w.setState(StateReceive)
		select {
		case t, ok := <-in:
			if !ok {
				w.setState(StateDone)
				return
			}
			w.setState(StateProcess)
			u, err := m.Map(ctx, t)
			if err != nil {
				w.failure()
				reportError(errs, pipeName, err)
				continue
			}
			w.setState(StateSend)
			select {
			case out <- u:
				w.success()
			case <-ctx.Done():
				w.setState(StateDone)
				return
			}
		case <-ctx.Done():
			w.setState(StateDone)
			return
		}
	}
}

// RunCollector feeds every input into Collector c's aggregator and emits
// whatever Flush produces on each interval tick; a final flush is attempted
// when the upstream channel closes.
func RunCollector[T, U any](ctx context.Context, pipeName string, c Collector[T, U], in <-chan T, out chan<- U, h *Handle, errs chan<- PipeError) {
	defer close(out)
	w := newWriter(h)

	ticker := time.NewTicker(c.FlushInterval())
	defer ticker.Stop()

	emitFlush := func() (done bool) {
		w.setState(StateProcess)
		u, err := c.Flush(ctx)
		if err != nil {
			w.failure()
			reportError(errs, pipeName, err)
			return false
		}
		if u == nil {
			return false
		}
		w.setState(StateSend)
		select {
		case out <- *u:
			w.success()
			return false
		case <-ctx.Done():
			return true
		}
	}

	for {
		w.setState(StateReceive)
		select {
		case t, ok := <-in:
			if !ok {
				emitFlush()
				w.setState(StateDone)
				return
			}
			w.setState(StateProcess)
			if err := c.Collect(ctx, t); err != nil {
				w.failure()
				reportError(errs, pipeName, err)
				continue
			}
			w.success()
		case <-ticker.C:
			if emitFlush() {
				w.setState(StateDone)
				return
			}
		case <-ctx.Done():
			w.setState(StateDone)
			return
		}
	}
}

// RunStreamer applies Streamer s to every input, which may push zero or
// more outputs through emit before returning.
func RunStreamer[T, U any](ctx context.Context, pipeName string, s Streamer[T, U], in <-chan T, out chan<- U, h *Handle, errs chan<- PipeError) {
	defer close(out)
	w := newWriter(h)

	emit := func(c context.Context, u U) error {
		select {
		case out <- u:
			return nil
		case <-c.Done():
			return c.Err()
		}
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
			if err := s.Stream(ctx, t, emit); err != nil {
				w.failure()
				reportError(errs, pipeName, err)
				continue
			}
			w.success()
		case <-ctx.Done():
			w.setState(StateDone)
			return
		}
	}
}

// RunExporter applies Exporter e to every input, the terminal sink of a
// pipe graph branch.
func RunExporter[T any](ctx context.Context, pipeName string, e Exporter[T], in <-chan T, h *Handle, errs chan<- PipeError) {
	w := newWriter(h)

	for {
		w.setState(StateReceive)
		select {
		case t, ok := <-in:
			if !ok {
				w.setState(StateDone)
				return
			}
			w.setState(StateProcess)
			if err := e.Export(ctx, t); err != nil {
				w.failure()
				reportError(errs, pipeName, err)
				continue
			}
			w.success()
		case <-ctx.Done():
			w.setState(StateDone)
			return
		}
	}
}
