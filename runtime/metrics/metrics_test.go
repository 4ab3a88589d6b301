package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pipebase/pipebase/runtime/kernel"
)

func TestObserveMirrorsSnapshots(t *testing.T) {
	t.Parallel()

	e := NewExporter("127.0.0.1:0")

	e.Observe(map[string]kernel.Context{
		"timer":   {State: kernel.StateSend, TotalRun: 7, SuccessRun: 6},
		"printer": {State: kernel.StateReceive, TotalRun: 6, SuccessRun: 6},
	})

	require.Equal(t, 7.0, testutil.ToFloat64(e.totalRun.WithLabelValues("timer")))
	require.Equal(t, 6.0, testutil.ToFloat64(e.successRun.WithLabelValues("timer")))
	require.Equal(t, 1.0, testutil.ToFloat64(e.state.WithLabelValues("timer", "send")))
	require.Equal(t, 6.0, testutil.ToFloat64(e.totalRun.WithLabelValues("printer")))

	// A state transition clears the previous state sample.
	e.Observe(map[string]kernel.Context{
		"timer": {State: kernel.StateDone, TotalRun: 8, SuccessRun: 7},
	})
	require.Equal(t, 1.0, testutil.ToFloat64(e.state.WithLabelValues("timer", "done")))
	require.Equal(t, 0.0, testutil.ToFloat64(e.state.WithLabelValues("timer", "send")))
	require.Equal(t, 8.0, testutil.ToFloat64(e.totalRun.WithLabelValues("timer")))
}

func TestRegistryGathers(t *testing.T) {
	t.Parallel()

	e := NewExporter("127.0.0.1:0")
	e.Observe(map[string]kernel.Context{
		"pipe": {State: kernel.StateProcess, TotalRun: 1, SuccessRun: 1},
	})

	families, err := e.Registry().Gather()
	require.NoError(t, err)

	names := make([]string, len(families))
	for i, f := range families {
		names[i] = f.GetName()
	}
	require.Contains(t, names, "pipebase_pipe_total_run")
	require.Contains(t, names, "pipebase_pipe_success_run")
	require.Contains(t, names, "pipebase_pipe_state")
}
