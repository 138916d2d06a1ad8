package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/irgraph/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Session string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	Session       string   `json:"session"`
	Name          string   `json:"name"`
	Ops           int      `json:"ops"`
	Nodes         int      `json:"nodes"`
	Deterministic bool     `json:"deterministic"`
	SchemaChanged bool     `json:"schema_changed,omitempty"`
	Mismatches    []string `json:"mismatches,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <journal>",
		Short: "Replay a construction journal and verify determinism",
		Long: `Re-execute every recorded session on a fresh graph and compare each
call's returned node id and error code, then the final graph fingerprint.

A session recorded against a different catalog is still replayed; the
report notes the schema change.

Exit codes:
  0 - All sessions replayed identically
  1 - Determinism verification failed (differences detected)
  2 - Command error (journal not found, unknown session, etc.)

Examples:
  irgraph replay ./construction.db
  irgraph replay ./construction.db --session 0190c2a4-...
  irgraph replay ./construction.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "replay this session only")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Open would create an empty journal.
	if _, err := os.Stat(path); err != nil {
		return WrapExitError(ExitCommandError, "journal not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	var ids []string
	if opts.Session != "" {
		ids = []string{opts.Session}
	} else {
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		for _, s := range sessions {
			ids = append(ids, s.ID)
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(ids)),
		TotalSessions:    len(ids),
		AllDeterministic: true,
	}
	for _, id := range ids {
		report, err := store.Replay(ctx, st, id)
		if errors.Is(err, store.ErrSessionNotFound) {
			return WrapExitError(ExitCommandError, fmt.Sprintf("unknown session %s", id), err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", id), err)
		}

		r := ReplaySessionResult{
			Session:       id,
			Name:          report.Session.Name,
			Ops:           report.Ops,
			Nodes:         report.Session.NodeCount,
			Deterministic: report.OK(),
			SchemaChanged: report.SchemaChanged,
		}
		for _, m := range report.Mismatches {
			r.Mismatches = append(r.Mismatches, m.String())
		}
		if !r.Deterministic {
			result.AllDeterministic = false
		}
		result.Sessions = append(result.Sessions, r)
	}

	o := output(opts.RootOptions, cmd)
	text := func(w io.Writer) { writeReplayText(w, result, opts.Verbose) }
	if result.AllDeterministic {
		return o.Result(result, text)
	}
	return o.Fail(ExitFailure, "E_DETERMINISM", "determinism verification failed", result, text)
}

func writeReplayText(w io.Writer, result ReplayResult, verbose bool) {
	if result.TotalSessions == 0 {
		fmt.Fprintln(w, "No sessions found in journal.")
		return
	}

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		status := "✓"
		if !s.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Session: %s (%s)\n", status, s.Name, s.Session)
		if verbose || !s.Deterministic {
			fmt.Fprintf(w, "  Ops: %d, Nodes: %d\n", s.Ops, s.Nodes)
		}
		if s.SchemaChanged {
			fmt.Fprintln(w, "  Note: recorded against a different catalog")
		}
		for _, m := range s.Mismatches {
			fmt.Fprintf(w, "  %s\n", m)
		}
	}
	fmt.Fprintln(w)

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions verified deterministic")
		return
	}
	fmt.Fprintln(w, "✗ Determinism verification failed")
}
