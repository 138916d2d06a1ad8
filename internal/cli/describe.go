package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/irgraph/internal/ir"
	"github.com/roach88/irgraph/internal/registry"
)

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <kind>",
		Short: "Show the schema of one node kind",
		Long: `Show everything the catalog records for a node kind: inputs, outputs,
attributes with their defaults, flags, pinning and block rules.

Exit codes:
  0 - Kind found
  2 - Unknown kind

Examples:
  irgraph describe Load
  irgraph describe Cond --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runDescribe(opts *RootOptions, name string, cmd *cobra.Command) error {
	o := output(opts, cmd)
	s, err := registry.Default().Describe(name)
	if err != nil {
		return o.Fail(ExitCommandError, string(ir.CodeOf(err)), err.Error(), nil, nil)
	}
	return o.Result(s, func(w io.Writer) { writeSchema(w, s) })
}

func writeSchema(w io.Writer, s registry.Schema) {
	fmt.Fprintf(w, "%s: %s\n\n", s.Name, s.Doc)

	fmt.Fprintf(w, "  arity:    %s", s.Arity)
	if s.CountAttr != "" {
		fmt.Fprintf(w, " (count in %s)", s.CountAttr)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  mode:     %s\n", s.Mode)
	fmt.Fprintf(w, "  block:    %s\n", s.Block)
	fmt.Fprintf(w, "  pinning:  %s (%s)\n", s.Pinning, s.PinInit)
	fmt.Fprintf(w, "  throws:   %s\n", s.Throws)
	fmt.Fprintf(w, "  flags:    %s\n", listOrDash(s.Flags))
	fmt.Fprintf(w, "  cons:     %s\n", listOrDash(s.ConsFlags))
	if s.Singleton {
		fmt.Fprintln(w, "  singleton")
	}

	if len(s.Inputs) > 0 || s.InputName != "" {
		fmt.Fprintln(w, "\ninputs:")
		for _, in := range s.Inputs {
			fmt.Fprintf(w, "  %-16s %s\n", in.Name, in.Doc)
		}
		if s.InputName != "" {
			fmt.Fprintf(w, "  %-16s variable tail\n", s.InputName+"...")
		}
	}
	if len(s.Outputs) > 0 {
		fmt.Fprintln(w, "\noutputs:")
		for i, o := range s.Outputs {
			mode := o.Mode
			if o.Nested != "" {
				mode += " " + o.Nested
			}
			fmt.Fprintf(w, "  %d %-14s %-8s %s\n", i, o.Name, mode, o.Doc)
		}
	}
	if len(s.Attrs) > 0 {
		fmt.Fprintln(w, "\nattributes:")
		for _, a := range s.Attrs {
			var notes []string
			if a.Default != "" {
				notes = append(notes, "default "+a.Default)
			}
			if a.NoProp {
				notes = append(notes, "derived")
			}
			if a.Optional {
				notes = append(notes, "optional")
			}
			line := fmt.Sprintf("  %-16s %-14s", a.Name, a.Type)
			if len(notes) > 0 {
				line += " [" + strings.Join(notes, ", ") + "]"
			}
			fmt.Fprintln(w, strings.TrimRight(line, " "))
		}
	}
}

func listOrDash(ss []string) string {
	if len(ss) == 0 {
		return "-"
	}
	return strings.Join(ss, ",")
}
