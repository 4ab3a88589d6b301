package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/pipebase/pipebase/internal/codegen"
	"github.com/pipebase/pipebase/internal/manifest"
	pberrors "github.com/pipebase/pipebase/pkg/errors"
	"github.com/pipebase/pipebase/pkg/logger"
)

// loadValidated runs the load-then-validate front half shared by generate
// and build.
func loadValidated(path string) (*manifest.ValidatedManifest, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	vm, diags := manifest.Validate(m, manifest.FullScope())
	if vm == nil {
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d)
		}
		return nil, withExitCode(pberrors.ExitCodegen, fmt.Errorf("manifest failed validation with %d diagnostics", len(diags)))
	}
	return vm, nil
}

func newGenerateCmd(flags *rootFlags, log *logger.Logger) *cobra.Command {
	var (
		name        string
		onlyPipe    string
		metricsAddr string
		modulePath  string
		runtimePath string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the app sources from the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			vm, err := loadValidated(flags.manifestPath())
			if err != nil {
				return err
			}
			opts := codegen.Options{
				OutDir:       flags.appDir(name),
				AppName:      name,
				Module:       modulePath,
				PipebasePath: runtimePath,
				OnlyPipe:     onlyPipe,
				MetricsAddr:  metricsAddr,
			}
			if err := codegen.Generate(vm, opts); err != nil {
				return withExitCode(pberrors.ExitCodegen, err)
			}
			log.With("app", name).Info("generated app sources")
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "app name")
	cmd.Flags().StringVarP(&onlyPipe, "pipe", "l", "", "generate only this pipe and its upstreams")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus pipe counters on this address")
	cmd.Flags().StringVar(&modulePath, "module", "", "module path for the generated go.mod")
	cmd.Flags().StringVar(&runtimePath, "runtime-path", "", "replace the runtime base package with a local checkout")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newBuildCmd(flags *rootFlags, log *logger.Logger) *cobra.Command {
	var (
		name    string
		release bool
		debug   bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile the generated app with the Go toolchain",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := flags.appDir(name)
			if _, err := os.Stat(dir); err != nil {
				return withExitCode(pberrors.ExitIO, err)
			}

			buildArgs := []string{"build"}
			if verbose {
				buildArgs = append(buildArgs, "-v")
			}
			if release {
				buildArgs = append(buildArgs, "-ldflags", "-s -w")
			}
			if debug {
				buildArgs = append(buildArgs, "-gcflags", "all=-N -l")
			}
			buildArgs = append(buildArgs, "./...")

			build := exec.CommandContext(cmd.Context(), "go", buildArgs...)
			build.Dir = dir
			build.Stdout = cmd.OutOrStdout()
			build.Stderr = cmd.ErrOrStderr()
			log.With("app", name).With("args", buildArgs).Info("invoking toolchain")

			if err := build.Run(); err != nil {
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					// The toolchain's own status is the contract.
					return withExitCode(exitErr.ExitCode(), err)
				}
				return withExitCode(pberrors.ExitIO, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "app name")
	cmd.Flags().BoolVarP(&release, "release", "r", false, "build with release flags")
	cmd.Flags().BoolVar(&debug, "debug", false, "build with debug flags")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose toolchain output")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
