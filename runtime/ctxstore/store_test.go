package ctxstore

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pipebase/pipebase/pkg/logger"
	"github.com/pipebase/pipebase/runtime/kernel"
)

func TestStoreSnapshot(t *testing.T) {
	t.Parallel()

	s := New(time.Second, logger.Nop())
	ha := kernel.NewHandle()
	hb := kernel.NewHandle()
	s.Register("a", ha)
	s.Register("b", hb)

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	require.Equal(t, kernel.StateInit, snap["a"].State)
	require.Equal(t, kernel.StateInit, snap["b"].State)
}

func TestNewDefaultsInterval(t *testing.T) {
	t.Parallel()

	s := New(0, logger.Nop())
	require.Equal(t, time.Second, s.interval)
}

func TestRunPrintRendersOnCancel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New("test", logger.FormatJSON, "info", &buf)
	s := New(time.Hour, log) // the tick never fires; only the final render
	s.Register("timer", kernel.NewHandle())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.RunPrint(ctx)

	out := buf.String()
	require.Contains(t, out, `"pipe":"timer"`)
	require.Contains(t, out, `"state":"init"`)
	require.Contains(t, out, `"total_run":0`)
}
