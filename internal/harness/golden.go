package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/irgraph/internal/ir"
)

// snapshot is the golden form of a result: the trace and the verdict, but
// not the fingerprint, which changes whenever the node encoding does.
func snapshot(result *Result) map[string]any {
	trace := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		m := map[string]any{
			"seq": ev.Seq,
			"op":  ev.Op,
		}
		if ev.Text != "" {
			m["text"] = ev.Text
		}
		if ev.Error != "" {
			m["error"] = ev.Error
		}
		trace[i] = m
	}
	return map[string]any{
		"name":  result.Name,
		"pass":  result.Pass,
		"trace": trace,
	}
}

// RunWithGolden runs sc and compares its trace against
// testdata/golden/{sc.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *Scenario, opts ...Option) (*Result, error) {
	t.Helper()
	result, err := Run(context.Background(), sc, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, sc.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares result's trace against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()
	data, err := ir.MarshalCanonical(snapshot(result))
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, append(data, '\n'))
	return nil
}
