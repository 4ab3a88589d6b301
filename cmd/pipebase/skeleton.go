package main

import (
	"fmt"
	"os"
	"path/filepath"

	pberrors "github.com/pipebase/pipebase/pkg/errors"
	"github.com/spf13/cobra"
)

// skeletonManifest is the minimal runnable pipeline `init` and `new`
// write: a timer poller feeding a printing exporter, so `generate` and
// `build` succeed out of the box.
const skeletonManifest = `pipes:
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
cstores:
  - name: store
    config:
      ty: Print
`

func writeSkeleton(dir, manifestName string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return withExitCode(pberrors.ExitIO, err)
	}
	path := filepath.Join(dir, manifestName)
	if _, err := os.Stat(path); err == nil {
		return withExitCode(pberrors.ExitIO, fmt.Errorf("refusing to overwrite existing manifest %s", path))
	}
	if err := os.WriteFile(path, []byte(skeletonManifest), 0o644); err != nil {
		return withExitCode(pberrors.ExitIO, err)
	}
	return nil
}

func newNewCmd(flags *rootFlags) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a new pipe app directory with a skeleton manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := writeSkeleton(flags.appDir(name), flags.manifest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", flags.appDir(name))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "app name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newInitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a skeleton manifest into the working directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := writeSkeleton(flags.workDir, flags.manifest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", flags.manifestPath())
			return nil
		},
	}
}

func newRemoveCmd(flags *rootFlags) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Delete an app directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := flags.workDir
			if name != "" {
				dir = flags.appDir(name)
			}
			if _, err := os.Stat(dir); err != nil {
				return withExitCode(pberrors.ExitIO, err)
			}
			if err := os.RemoveAll(dir); err != nil {
				return withExitCode(pberrors.ExitIO, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "app name")
	return cmd
}
