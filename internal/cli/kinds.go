package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/irgraph/internal/ir"
	"github.com/roach88/irgraph/internal/registry"
)

// KindsOptions holds flags for the kinds command.
type KindsOptions struct {
	*RootOptions
	Flags []string // only kinds carrying every flag
}

// KindSummary is one row of the kinds listing.
type KindSummary struct {
	Name    string   `json:"name"`
	Arity   string   `json:"arity"`
	Inputs  int      `json:"inputs"`
	Outputs int      `json:"outputs"`
	Mode    string   `json:"mode"`
	Flags   []string `json:"flags"`
}

// NewKindsCommand creates the kinds command.
func NewKindsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KindsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "List the node kinds of the catalog",
		Long: `List every node kind in catalog order with its arity, mode rule and flags.

Examples:
  irgraph kinds
  irgraph kinds --flag fragile
  irgraph kinds --flag cfopcode --flag forking --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKinds(opts, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Flags, "flag", nil, "only kinds with this flag (repeatable)")

	return cmd
}

func runKinds(opts *KindsOptions, cmd *cobra.Command) error {
	var want ir.Flags
	for _, name := range opts.Flags {
		f, err := ir.ParseFlag(name)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --flag", err)
		}
		want |= f
	}

	kinds := registry.Default().Filter(want)
	rows := make([]KindSummary, len(kinds))
	for i, k := range kinds {
		rows[i] = KindSummary{
			Name:    k.Name,
			Arity:   k.Arity.String(),
			Inputs:  k.NumInputs(),
			Outputs: len(k.Outputs),
			Mode:    k.Mode.String(),
			Flags:   k.Flags.Names(),
		}
	}

	return output(opts.RootOptions, cmd).Result(rows, func(w io.Writer) {
		for _, r := range rows {
			fmt.Fprintf(w, "%-14s %-9s %-18s %s\n", r.Name, r.Arity, r.Mode, listOrDash(r.Flags))
		}
		fmt.Fprintf(w, "\n%d kind(s)\n", len(rows))
	})
}
