// Package errhandler is the pipeline's error sink: a single drain loop
// consuming kernel.PipeError values published by
// every pipe task and reporting them without ever becoming the bottleneck
// that stalls the pipeline.
package errhandler

import (
	"context"

	"github.com/pipebase/pipebase/pkg/logger"
	"github.com/pipebase/pipebase/runtime/kernel"
)

// Handler reacts to one PipeError. Implementations must not block for long;
// a slow Handle call only delays error visibility, it never blocks pipe
// tasks, since RunXxx's reportError already drops reports rather than
// waiting.
type Handler interface {
	Handle(ctx context.Context, e kernel.PipeError)
}

// LogHandler reports every PipeError as a structured log line. It is the
// default handler.
type LogHandler struct {
	log *logger.Logger
}

func NewLogHandler(log *logger.Logger) *LogHandler {
	return &LogHandler{log: log}
}

func (h *LogHandler) Handle(_ context.Context, e kernel.PipeError) {
	h.log.With("pipe", e.PipeName).Error(e.Err, "pipe error")
}

// Drain consumes errs until it is closed or ctx is cancelled, dispatching
// every received PipeError to handler. Drain is the sole consumer of errs;
// the supervisor wires exactly one Drain goroutine per run.
func Drain(ctx context.Context, errs <-chan kernel.PipeError, handler Handler) {
	for {
		select {
		case e, ok := <-errs:
			if !ok {
				return
			}
			handler.Handle(ctx, e)
		case <-ctx.Done():
			// Keep draining already-buffered errors so a burst right at
			// shutdown is still reported, but stop waiting once the
			// channel is empty.
			for {
				select {
				case e, ok := <-errs:
					if !ok {
						return
					}
					handler.Handle(ctx, e)
				default:
					return
				}
			}
		}
	}
}
