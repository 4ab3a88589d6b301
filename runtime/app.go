package runtime

import (
	"time"

	"github.com/pipebase/pipebase/runtime/ctxstore"
)

// App is the static description codegen emits into app_gen.go: every pipe
// in a validated manifest, lowered to a concrete PipeSpec, plus the
// run-level knobs the Context Store and CLI flags control.
// supervisor.Run consumes an App; nothing in this package starts a
// goroutine: PipeSpec.Wire only returns the RunFunc the supervisor starts.
type App struct {
	Name                string
	Pipes               []PipeSpec
	ContextStoreMode    ctxstore.Mode
	ContextStoreRefresh time.Duration

	// MetricsAddr, when non-empty, exposes every pipe's Context counters
	// as Prometheus gauges on addr/metrics for the lifetime of the run.
	MetricsAddr string
}
