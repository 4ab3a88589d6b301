// Package ctxstore aggregates pipe telemetry: a registry of per-pipe
// kernel.Handle snapshots plus an observer
// that periodically renders them, either as log lines (print mode) or as a
// live terminal dashboard (tui mode, see tui.go).
package ctxstore

import (
	"context"
	"sort"
	"time"

	"github.com/pipebase/pipebase/pkg/logger"
	"github.com/pipebase/pipebase/runtime/kernel"
)

// Mode selects how the store renders observed pipe contexts.
type Mode string

const (
	ModePrint Mode = "print"
	ModeTUI   Mode = "tui"
)

// Entry is one pipe's registered handle under its declared name.
type Entry struct {
	Name   string
	Handle *kernel.Handle
}

// Store holds every pipe's context handle for the lifetime of a run. It is
// populated once during Supervisor wiring and is read-only thereafter, so
// no synchronization is needed around the slice itself.
type Store struct {
	entries  []Entry
	interval time.Duration
	log      *logger.Logger
}

// New builds a Store observing at the given refresh interval. A
// non-positive interval defaults to one second.
func New(interval time.Duration, log *logger.Logger) *Store {
	if interval <= 0 {
		interval = time.Second
	}
	return &Store{interval: interval, log: log}
}

// Register adds a pipe's handle under its declared name. Both render modes
// list pipes sorted by name, whatever the registration order.
func (s *Store) Register(name string, h *kernel.Handle) {
	s.entries = append(s.entries, Entry{Name: name, Handle: h})
}

// Snapshot returns every registered pipe's current Context keyed by pipe
// name, used by both render modes and by tests.
func (s *Store) Snapshot() map[string]kernel.Context {
	out := make(map[string]kernel.Context, len(s.entries))
	for _, e := range s.entries {
		out[e.Name] = e.Handle.Snapshot()
	}
	return out
}

// names returns registered pipe names in declaration order.
func (s *Store) names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.Name
	}
	return names
}

// RunPrint observes the store on a ticker and logs one structured line per
// pipe per tick until ctx is cancelled.
func (s *Store) RunPrint(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	render := func() {
		names := s.names()
		sort.Strings(names)
		snap := s.Snapshot()
		for _, name := range names {
			c := snap[name]
			s.log.With("pipe", name).
				With("state", string(c.State)).
				With("total_run", c.TotalRun).
				With("success_run", c.SuccessRun).
				Info("context")
		}
	}

	for {
		select {
		case <-ctx.Done():
			render()
			return
		case <-ticker.C:
			render()
		}
	}
}
