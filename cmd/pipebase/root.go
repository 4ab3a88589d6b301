package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pipebase/pipebase/pkg/logger"
)

// defaultManifestName is the manifest file looked up inside the working
// directory when -m is not given.
const defaultManifestName = "pipe.yml"

type rootFlags struct {
	workDir  string
	manifest string
}

// manifestPath resolves the manifest file the current invocation operates
// on.
func (f *rootFlags) manifestPath() string {
	return filepath.Join(f.workDir, f.manifest)
}

// appDir resolves the directory of a named app under the working
// directory.
func (f *rootFlags) appDir(name string) string {
	return filepath.Join(f.workDir, name)
}

func newRootCmd(log *logger.Logger) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "pipebase",
		Short:         "pipebase generates and drives typed streaming dataflow apps",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.workDir, "dir", "d", ".", "working directory")
	cmd.PersistentFlags().StringVarP(&flags.manifest, "manifest", "m", defaultManifestName, "manifest file name")

	cmd.AddCommand(newNewCmd(flags))
	cmd.AddCommand(newInitCmd(flags))
	cmd.AddCommand(newGenerateCmd(flags, log))
	cmd.AddCommand(newBuildCmd(flags, log))
	cmd.AddCommand(newValidateCmd(flags))
	cmd.AddCommand(newCheckCmd(flags))
	cmd.AddCommand(newDescribeCmd(flags))
	cmd.AddCommand(newRemoveCmd(flags))

	return cmd
}
