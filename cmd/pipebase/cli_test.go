package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pberrors "github.com/pipebase/pipebase/pkg/errors"
	"github.com/pipebase/pipebase/pkg/logger"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(logger.Nop())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInitThenValidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := runCLI(t, "init", "-d", dir)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "pipe.yml"))

	out, err := runCLI(t, "validate", "-d", dir)
	require.NoError(t, err)
	require.Contains(t, out, "manifest ok")

	// A second init refuses to clobber the existing manifest.
	_, err = runCLI(t, "init", "-d", dir)
	require.Error(t, err)
	require.Equal(t, pberrors.ExitIO, exitCode(err))
}

func TestNewThenGenerateAndRemove(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := runCLI(t, "new", "-n", "demo", "-d", dir)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "demo", "pipe.yml"))

	_, err = runCLI(t, "generate", "-n", "demo", "-d", filepath.Join(dir, "demo"))
	require.NoError(t, err)
	appDir := filepath.Join(dir, "demo", "demo")
	require.FileExists(t, filepath.Join(appDir, "app_gen.go"))
	require.FileExists(t, filepath.Join(appDir, "main.go"))
	require.FileExists(t, filepath.Join(appDir, "go.mod"))

	_, err = runCLI(t, "remove", "-n", "demo", "-d", dir)
	require.NoError(t, err)
	require.NoDirExists(t, filepath.Join(dir, "demo"))

	_, err = runCLI(t, "remove", "-n", "demo", "-d", dir)
	require.Error(t, err)
	require.Equal(t, pberrors.ExitIO, exitCode(err))
}

func TestValidateRejectsCycle(t *testing.T) {
	t.Parallel()

	cyclic := `pipes:
  - name: a
    ty: mapper
    upstream:
      - b
    config:
      ty: Identity
    output: u64
  - name: b
    ty: mapper
    upstream:
      - a
    config:
      ty: Identity
    output: u64
`
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pipe.yml"), []byte(cyclic), 0o644))

	out, err := runCLI(t, "validate", "-d", dir)
	require.Error(t, err)
	require.Equal(t, pberrors.ExitCodegen, exitCode(err))
	require.Contains(t, out, "cycle detected")
	require.Contains(t, out, "a")
	require.Contains(t, out, "b")
}

func TestCheckSubsets(t *testing.T) {
	t.Parallel()

	// Pipes are intact; one object is broken. `check -p` passes while
	// `check -o` reports the object diagnostic.
	contents := `pipes:
  - name: timer
    ty: poller
    config:
      ty: Timer
    output: u64
  - name: printer
    ty: exporter
    upstream:
      - timer
    config:
      ty: Printer
objects:
  - ty: record
    fields:
      - name: payload
        data_ty: seq<Ghost>
`
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pipe.yml"), []byte(contents), 0o644))

	_, err := runCLI(t, "check", "-p", "-d", dir)
	require.NoError(t, err)

	out, err := runCLI(t, "check", "-o", "-d", dir)
	require.Error(t, err)
	require.Contains(t, out, "Ghost")
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := runCLI(t, "init", "-d", dir)
	require.NoError(t, err)

	out, err := runCLI(t, "describe", "-d", dir)
	require.NoError(t, err)
	require.Contains(t, out, "PIPES")
	require.Contains(t, out, "timer")
	require.Contains(t, out, "printer")
	require.Contains(t, out, "CONTEXT STORES")

	out, err = runCLI(t, "describe", "--json", "-d", dir)
	require.NoError(t, err)
	require.Contains(t, out, `"Name": "timer"`)
}

func TestExitCodeMapping(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pipe.yml"), []byte("pipes: [broken"), 0o644))

	_, err := runCLI(t, "validate", "-d", dir)
	require.Error(t, err)
	require.Equal(t, pberrors.ExitManifestParse, exitCode(err))
}
