// Package supervisor owns the runtime graph: it wires every pipe's
// channels in topological order, starts one
// goroutine per pipe plus the Context Store and Error Handler, and turns
// any pipe task panic into a SupervisorFatal that tears the whole run down
// rather than leaving a half-dead graph running.
package supervisor

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	pberrors "github.com/pipebase/pipebase/pkg/errors"

	"github.com/pipebase/pipebase/pkg/logger"
	"github.com/pipebase/pipebase/runtime"
	"github.com/pipebase/pipebase/runtime/ctxstore"
	"github.com/pipebase/pipebase/runtime/errhandler"
	"github.com/pipebase/pipebase/runtime/kernel"
	"github.com/pipebase/pipebase/runtime/metrics"
)

// errChannelBuffer bounds how many in-flight PipeErrors can queue before
// reportError (runtime/kernel/task.go) starts dropping them; sized well
// above what a normal run produces so drops only happen under sustained
// failure storms.
const errChannelBuffer = 256

// Run wires app and blocks until the graph drains, ctx is cancelled, or a
// pipe task panics. On a clean shutdown it returns nil; on panic it
// returns a *pberrors.SupervisorFatal identifying the pipe that crashed,
// which the generated program's main turns into exit status 1.
func Run(ctx context.Context, app *runtime.App, log *logger.Logger) error {
	return RunWithHandler(ctx, app, log, nil)
}

// RunWithHandler is Run with an explicit Error Handler; handler == nil
// selects the default structured-log handler.
func RunWithHandler(ctx context.Context, app *runtime.App, log *logger.Logger, handler errhandler.Handler) error {
	runID := uuid.NewString()
	log = log.With("run_id", runID).With("app", app.Name)

	reg := runtime.NewChannelRegistry()
	store := ctxstore.New(app.ContextStoreRefresh, log)
	errCh := make(chan kernel.PipeError, errChannelBuffer)
	if handler == nil {
		handler = errhandler.NewLogHandler(log)
	}

	// Wire every pipe before starting any goroutine. app.Pipes is already
	// topologically ordered by codegen (producers before consumers), so
	// each Wire call's Lookup always finds a channel a prior Wire call
	// already Declared.
	runs := make([]runtime.RunFunc, len(app.Pipes))
	names := make([]string, len(app.Pipes))
	for i, p := range app.Pipes {
		runs[i] = p.Wire(reg, store)
		names[i] = p.Name()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var bgWG sync.WaitGroup // Context Store, Error Handler, metrics goroutines
	bgWG.Add(1)
	go func() {
		defer bgWG.Done()
		errhandler.Drain(runCtx, errCh, handler)
	}()

	switch app.ContextStoreMode {
	case ctxstore.ModeTUI:
		bgWG.Add(1)
		go func() {
			defer bgWG.Done()
			if err := store.RunTUI(runCtx); err != nil {
				log.Error(err, "context store tui exited")
			}
		}()
	default:
		bgWG.Add(1)
		go func() {
			defer bgWG.Done()
			store.RunPrint(runCtx)
		}()
	}

	if app.MetricsAddr != "" {
		exporter := metrics.NewExporter(app.MetricsAddr)
		bgWG.Add(1)
		go func() {
			defer bgWG.Done()
			if err := exporter.Run(runCtx, store, app.ContextStoreRefresh); err != nil {
				log.Error(err, "metrics exporter exited")
			}
		}()
	}

	// Pipe tasks run under one errgroup: the only error a task can return
	// is a SupervisorFatal converted from a recovered panic, and the
	// group's derived context cancels every sibling as soon as one does.
	// Per-record errors never surface here;
	// they already went to errCh inside the kernel loops.
	g, gctx := errgroup.WithContext(runCtx)
	for i := range runs {
		pipeName, run := names[i], runs[i]
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = pberrors.NewSupervisorFatal(pipeName, fmt.Errorf("panic: %v", r))
				}
			}()
			run(gctx, errCh)
			return nil
		})
	}

	err := g.Wait()
	// The graph drained (every pipe returned); stop the observers too.
	cancel()
	bgWG.Wait()
	close(errCh)

	if err != nil {
		log.Error(err, "pipeline aborted")
		return err
	}
	log.Info("pipeline complete")
	return nil
}
