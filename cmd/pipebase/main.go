package main

import (
	"errors"
	"os"

	pberrors "github.com/pipebase/pipebase/pkg/errors"
	"github.com/pipebase/pipebase/pkg/logger"
)

func main() {
	log := logger.New("cli", logger.FormatFromEnv(), "info", os.Stderr)

	cmd := newRootCmd(log)
	if err := cmd.Execute(); err != nil {
		log.Error(err, "command failed")
		os.Exit(exitCode(err))
	}
}

// exitCode maps the error taxonomy onto the CLI exit code contract.
func exitCode(err error) int {
	var exit *exitStatusError
	if errors.As(err, &exit) {
		return exit.code
	}

	var parseErr *pberrors.ManifestParseError
	if errors.As(err, &parseErr) {
		return pberrors.ExitManifestParse
	}
	var valErr *pberrors.ValidationError
	if errors.As(err, &valErr) {
		return pberrors.ExitCodegen
	}
	var genErr *pberrors.CodegenError
	if errors.As(err, &genErr) {
		return pberrors.ExitCodegen
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) || errors.Is(err, os.ErrExist) {
		return pberrors.ExitIO
	}
	return 1
}

// exitStatusError carries an explicit exit code through cobra's error
// return, used where a command's contract names a specific status (the
// validator's 101, I/O failures' 102, build's pass-through toolchain
// status).
type exitStatusError struct {
	code int
	err  error
}

func (e *exitStatusError) Error() string { return e.err.Error() }
func (e *exitStatusError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitStatusError{code: code, err: err}
}
