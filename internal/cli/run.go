package cli

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/roach88/irgraph/internal/ctxlog"
	"github.com/roach88/irgraph/internal/graph"
	"github.com/roach88/irgraph/internal/harness"
	"github.com/roach88/irgraph/internal/ir"
	"github.com/roach88/irgraph/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal string // SQLite journal path, none when empty

	// IDs overrides the journal's session id generator (for testing).
	IDs store.IDGenerator
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name        string   `json:"name"`
	Pass        bool     `json:"pass"`
	Nodes       int      `json:"nodes"`
	Fingerprint string   `json:"fingerprint"`
	Errors      []string `json:"errors,omitempty"`
}

// RunResult holds the overall run result.
type RunResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
	Sessions  int              `json:"sessions,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario>...",
		Short: "Run construction scenarios",
		Long: `Run construction scenarios, each against its own fresh graph.

Arguments are scenario files (.yaml, .yml, .hcl) or directories holding
them. Scenarios run in parallel; results are reported in argument order.
With --journal every kernel call is recorded in a SQLite journal that
"irgraph replay" can later check for determinism.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (unreadable or invalid scenario, journal error)

Examples:
  irgraph run ./scenarios
  irgraph run loop.yaml branch.hcl --format json
  irgraph run ./scenarios --journal ./construction.db`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record every kernel call in this SQLite journal")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := ctxlog.FromContext(ctx)

	scenarios, err := harness.LoadScenarios(paths...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenarios", err)
	}
	log.Info("scenarios loaded", "count", len(scenarios))

	var (
		runOpts  []harness.Option
		sessions atomic.Int64
	)
	if opts.Journal != "" {
		var storeOpts []store.Option
		if opts.IDs != nil {
			storeOpts = append(storeOpts, store.WithIDGenerator(opts.IDs))
		}
		st, err := store.Open(opts.Journal, storeOpts...)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				log.Error("error closing journal", "error", closeErr)
			}
		}()
		runOpts = append(runOpts, harness.WithKernel(func(ctx context.Context, g *graph.Graph, syms *ir.Symbols) (harness.Kernel, error) {
			rec, err := st.NewRecorder(g.Name(), g, syms)
			if err != nil {
				return nil, err
			}
			sessions.Add(1)
			return rec, nil
		}))
	}

	results, err := harness.RunAll(ctx, scenarios, runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenarios", err)
	}

	out := RunResult{
		Scenarios: make([]ScenarioResult, 0, len(results)),
		Total:     len(results),
		Sessions:  int(sessions.Load()),
	}
	for _, r := range results {
		out.Scenarios = append(out.Scenarios, ScenarioResult{
			Name:        r.Name,
			Pass:        r.Pass,
			Nodes:       r.Nodes,
			Fingerprint: r.Fingerprint,
			Errors:      r.Errors,
		})
		if r.Pass {
			out.Passed++
		} else {
			out.Failed++
		}
	}

	o := output(opts.RootOptions, cmd)
	text := func(w io.Writer) { writeRunText(w, opts.Journal, out) }
	if out.Failed == 0 {
		return o.Result(out, text)
	}
	return o.Fail(ExitFailure, "E_RUN", fmt.Sprintf("%d scenario(s) failed", out.Failed), out, text)
}

func writeRunText(w io.Writer, journal string, result RunResult) {
	for _, s := range result.Scenarios {
		if s.Pass {
			fmt.Fprintf(w, "✓ %s (%d nodes)\n", s.Name, s.Nodes)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if journal != "" {
		fmt.Fprintf(w, "recorded %d session(s) in %s\n", result.Sessions, journal)
	}
}
