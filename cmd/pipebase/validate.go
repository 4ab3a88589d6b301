package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pipebase/pipebase/internal/manifest"
	pberrors "github.com/pipebase/pipebase/pkg/errors"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headStyle = lipgloss.NewStyle().Bold(true)
)

// isTTY reports whether stdout is an interactive terminal; piped output
// gets plain text regardless of styles.
func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func styled(style lipgloss.Style, s string) string {
	if !isTTY() {
		return s
	}
	return style.Render(s)
}

// scopeFromFlags maps the -p/-o subset flags onto a validation Scope.
// Neither flag means everything in the command's reach.
func scopeFromFlags(pipes, objects bool, includeCStores bool) manifest.Scope {
	if !pipes && !objects {
		return manifest.Scope{Pipes: true, Objects: true, CStores: includeCStores}
	}
	return manifest.Scope{Pipes: pipes, Objects: objects, CStores: includeCStores && !pipes && !objects}
}

func runValidation(cmd *cobra.Command, path string, scope manifest.Scope) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	vm, diags := manifest.Validate(m, scope)
	if vm != nil {
		fmt.Fprintln(cmd.OutOrStdout(), styled(okStyle, "manifest ok"))
		return nil
	}
	for _, d := range diags {
		fmt.Fprintln(cmd.OutOrStdout(), styled(failStyle, d.String()))
	}
	return withExitCode(pberrors.ExitCodegen, fmt.Errorf("%d diagnostics", len(diags)))
}

func newValidateCmd(flags *rootFlags) *cobra.Command {
	var pipes, objects bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the manifest: pipes, objects and context stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidation(cmd, flags.manifestPath(), scopeFromFlags(pipes, objects, true))
		},
	}

	cmd.Flags().BoolVarP(&pipes, "pipes", "p", false, "restrict to pipe checks")
	cmd.Flags().BoolVarP(&objects, "objects", "o", false, "restrict to object checks")
	return cmd
}

func newCheckCmd(flags *rootFlags) *cobra.Command {
	var pipes, objects bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the pipe and object subsets of the manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidation(cmd, flags.manifestPath(), scopeFromFlags(pipes, objects, false))
		},
	}

	cmd.Flags().BoolVarP(&pipes, "pipes", "p", false, "restrict to pipe checks")
	cmd.Flags().BoolVarP(&objects, "objects", "o", false, "restrict to object checks")
	return cmd
}

func newDescribeCmd(flags *rootFlags) *cobra.Command {
	var pipes, objects, asJSON bool

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Dump a summary of the manifest's entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(flags.manifestPath())
			if err != nil {
				return err
			}
			all := !pipes && !objects
			if asJSON {
				return describeJSON(cmd, m, pipes || all, objects || all, all)
			}
			describeText(cmd, m, pipes || all, objects || all, all)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&pipes, "pipes", "p", false, "describe pipes only")
	cmd.Flags().BoolVarP(&objects, "objects", "o", false, "describe objects only")
	cmd.Flags().BoolVar(&asJSON, "json", false, "machine-readable output")
	return cmd
}

func describeText(cmd *cobra.Command, m *manifest.Manifest, pipes, objects, cstores bool) {
	out := cmd.OutOrStdout()
	if pipes {
		fmt.Fprintln(out, styled(headStyle, "PIPES"))
		for _, p := range m.Pipes {
			upstream := "-"
			if len(p.Upstream) > 0 {
				upstream = strings.Join(p.Upstream, ",")
			}
			output := p.Output
			if output == "" {
				output = "-"
			}
			fmt.Fprintf(out, "  %-20s %-10s upstream=%-24s output=%-16s buffer=%d %s\n",
				p.Name, p.Kind, upstream, output, p.Buffer, styled(dimStyle, "config="+p.Config.Type))
		}
	}
	if objects {
		fmt.Fprintln(out, styled(headStyle, "OBJECTS"))
		for _, o := range m.Objects {
			fields := make([]string, len(o.Fields))
			for i, f := range o.Fields {
				fields[i] = f.Name + ":" + f.DataTy
			}
			fmt.Fprintf(out, "  %-20s {%s}\n", o.Name, strings.Join(fields, ", "))
		}
	}
	if cstores {
		fmt.Fprintln(out, styled(headStyle, "CONTEXT STORES"))
		for _, c := range m.ContextStores {
			fmt.Fprintf(out, "  %-20s %s\n", c.Name, styled(dimStyle, "config="+c.Config.Type))
		}
		if m.Error != nil {
			fmt.Fprintf(out, "%s\n  %s\n", styled(headStyle, "ERROR HANDLER"), styled(dimStyle, "config="+m.Error.Config.Type))
		}
	}
}

func describeJSON(cmd *cobra.Command, m *manifest.Manifest, pipes, objects, cstores bool) error {
	doc := map[string]any{}
	if pipes {
		doc["pipes"] = m.Pipes
	}
	if objects {
		doc["objects"] = m.Objects
	}
	if cstores {
		doc["cstores"] = m.ContextStores
		if m.Error != nil {
			doc["error"] = m.Error
		}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
