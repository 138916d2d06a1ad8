package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/roach88/irgraph/internal/ctxlog"
	"github.com/roach88/irgraph/internal/graph"
	"github.com/roach88/irgraph/internal/ir"
	"github.com/roach88/irgraph/internal/registry"
	"github.com/roach88/irgraph/internal/schema"
)

// Mismatch is one divergence between a journal and its replay.
type Mismatch struct {
	Seq   int64  // op seq, or 0 for the snapshot
	Op    string
	Field string
	Want  string
	Got   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("#%d %s: %s = %s, want %s", m.Seq, m.Op, m.Field, m.Got, m.Want)
}

// Report is the outcome of replaying one session.
type Report struct {
	Session     Session
	Ops         int
	Fingerprint string
	Mismatches  []Mismatch

	// SchemaChanged is set when the replaying catalog differs from the one
	// the session was recorded against.
	SchemaChanged bool
}

// OK reports whether the replay reproduced every outcome and the graph.
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0 && r.Fingerprint == r.Session.Fingerprint
}

type replayConfig struct {
	reg *registry.Registry
}

// ReplayOption configures Replay.
type ReplayOption func(*replayConfig)

// ReplayRegistry replays against r instead of registry.Default().
func ReplayRegistry(r *registry.Registry) ReplayOption {
	return func(c *replayConfig) {
		if r != nil {
			c.reg = r
		}
	}
}

// Replay re-executes a session's ops on a fresh graph and compares every
// returned node id and error code, then the final fingerprint. Identical
// call sequences must produce identical graphs, so any mismatch is a
// determinism failure (or a catalog change, see Report.SchemaChanged).
func Replay(ctx context.Context, s *Store, session string, opts ...ReplayOption) (*Report, error) {
	cfg := replayConfig{reg: registry.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	log := ctxlog.FromContext(ctx).With("session", session)

	sess, err := s.ReadSession(ctx, session)
	if err != nil {
		return nil, err
	}
	ops, err := s.ReadOps(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", session, err)
	}

	syms := ir.NewSymbols()
	if err := syms.Declare(sess.Types, sess.Entities); err != nil {
		return nil, fmt.Errorf("replay %s: %w", session, err)
	}
	gopts := []graph.Option{graph.WithName(sess.Graph), graph.WithRegistry(cfg.reg), graph.WithLogger(log)}
	if sess.Entity != "" {
		e, ok := syms.Entity(sess.Entity)
		if !ok {
			return nil, fmt.Errorf("replay %s: entity %q is not declared", session, sess.Entity)
		}
		gopts = append(gopts, graph.WithEntity(e))
	}

	doc, err := schema.Export(cfg.reg)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", session, err)
	}

	rp := &replayer{g: graph.New(gopts...), reg: cfg.reg, syms: syms}
	report := &Report{Session: sess, Ops: len(ops), SchemaChanged: doc.Hash != sess.SchemaHash}
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Mismatches = append(report.Mismatches, rp.apply(op)...)
	}

	if report.Fingerprint, err = rp.g.Fingerprint(); err != nil {
		return nil, fmt.Errorf("replay %s: %w", session, err)
	}
	if report.Fingerprint != sess.Fingerprint {
		m, err := s.snapshotDiff(ctx, sess, rp.g)
		if err != nil {
			return nil, fmt.Errorf("replay %s: %w", session, err)
		}
		report.Mismatches = append(report.Mismatches, m...)
	}

	log.Info("session replayed", "ops", len(ops), "mismatches", len(report.Mismatches), "ok", report.OK())
	return report, nil
}

type replayer struct {
	g    *graph.Graph
	reg  *registry.Registry
	syms *ir.Symbols
}

// apply runs one op and compares its outcome with the journal.
func (rp *replayer) apply(op Op) []Mismatch {
	result, err := rp.exec(op)
	if _, setup := err.(setupError); setup {
		// A rejected call leaves the graph untouched, so one whose
		// arguments cannot be rebuilt (an unknown attribute, say) is
		// still reproduced by skipping it.
		if op.Error != "" && op.Result == NoNode {
			return nil
		}
		return []Mismatch{{Seq: op.Seq, Op: op.Type, Field: "call", Want: "replayable", Got: err.Error()}}
	}

	var out []Mismatch
	if got := errorCode(err); got != op.Error {
		out = append(out, Mismatch{Seq: op.Seq, Op: op.Type, Field: "error", Want: quoteEmpty(op.Error), Got: quoteEmpty(got)})
	}
	if got := nodeID(result); got != op.Result {
		out = append(out, Mismatch{Seq: op.Seq, Op: op.Type, Field: "result", Want: strconv.Itoa(op.Result), Got: strconv.Itoa(got)})
	}
	return out
}

func quoteEmpty(s string) string {
	if s == "" {
		return `""`
	}
	return s
}

// setupError marks a journal entry that cannot be turned back into a call.
type setupError struct{ error }

func (rp *replayer) node(id int) (*graph.Node, error) {
	if id == NoNode {
		return nil, nil
	}
	n, ok := rp.g.Node(id)
	if !ok {
		return nil, setupError{fmt.Errorf("node %d does not exist", id)}
	}
	return n, nil
}

func (rp *replayer) nodes(ids []int) ([]*graph.Node, error) {
	out := make([]*graph.Node, len(ids))
	for i, id := range ids {
		n, err := rp.node(id)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (rp *replayer) exec(op Op) (*graph.Node, error) {
	g := rp.g
	target, err := rp.node(op.Node)
	if err != nil {
		return nil, err
	}
	value, err := rp.node(op.Value)
	if err != nil {
		return nil, err
	}

	switch op.Type {
	case OpInit:
		return nil, g.InitSingletons()
	case OpCreate:
		return rp.create(op)
	case OpProject:
		return g.Project(target, op.Index)
	case OpProjectNamed:
		return g.ProjectNamed(target, op.Name)
	case OpPlaceholder:
		m, err := parseMode(op.Mode)
		if err != nil {
			return nil, setupError{err}
		}
		return g.NewPlaceholder(m)
	case OpAddPred:
		return nil, g.AddPredecessor(target, value)
	case OpMature:
		return nil, g.Mature(target)
	case OpSetInput:
		return nil, g.SetInput(target, op.Index, value)
	case OpAppendInput:
		return nil, g.AppendInput(target, value)
	case OpSetAttr:
		raw, ok := op.Attrs[op.Name]
		if !ok || target == nil {
			return nil, g.SetAttr(target, op.Name, nil)
		}
		spec, ok := target.Kind().Attr(op.Name)
		if !ok {
			// rejected by the kernel either way
			return nil, g.SetAttr(target, op.Name, nil)
		}
		v, err := ir.DecodeAttr(spec.Type, raw, rp.syms)
		if err != nil {
			return nil, setupError{err}
		}
		return nil, g.SetAttr(target, op.Name, v)
	case OpSetThrows:
		return nil, g.SetThrowsException(target, op.Throws)
	case OpSetBackedge:
		return nil, g.SetBackedge(target, op.Index)
	}
	return nil, setupError{fmt.Errorf("unknown op %q", op.Type)}
}

func (rp *replayer) create(op Op) (*graph.Node, error) {
	var k *registry.Kind
	if op.Kind != "" {
		var err error
		if k, err = rp.reg.Lookup(op.Kind); err != nil {
			return nil, setupError{err}
		}
	}
	block, err := rp.node(op.Block)
	if err != nil {
		return nil, err
	}
	inputs, err := rp.nodes(op.Inputs)
	if err != nil {
		return nil, err
	}
	init := graph.Init{}
	if init.Flags, err = ir.ParseConsFlags(op.Flags); err != nil {
		return nil, setupError{err}
	}
	if init.Mode, err = parseMode(op.Mode); err != nil {
		return nil, setupError{err}
	}
	if len(op.Attrs) > 0 && k != nil {
		init.Attrs = make(map[string]ir.AttrValue, len(op.Attrs))
		for _, name := range ir.SortedKeys(op.Attrs) {
			spec, ok := k.Attr(name)
			if !ok {
				return nil, setupError{fmt.Errorf("kind %s has no attribute %q", k.Name, name)}
			}
			v, err := ir.DecodeAttr(spec.Type, op.Attrs[name], rp.syms)
			if err != nil {
				return nil, setupError{fmt.Errorf("attribute %q: %w", name, err)}
			}
			init.Attrs[name] = v
		}
	}
	return rp.g.CreateNode(k, block, inputs, init)
}

// parseMode accepts the journal's spelling of "no mode" as well.
func parseMode(name string) (ir.Mode, error) {
	if name == "" || name == ir.ModeNone.String() {
		return ir.ModeNone, nil
	}
	return ir.ParseMode(name)
}

// snapshotDiff reports the first node whose replayed encoding differs from
// the journaled snapshot, and a differing node count.
func (s *Store) snapshotDiff(ctx context.Context, sess Session, g *graph.Graph) ([]Mismatch, error) {
	want, err := s.ReadNodes(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	got, err := Snapshot(g)
	if err != nil {
		return nil, err
	}

	var out []Mismatch
	if len(want) != len(got) {
		out = append(out, Mismatch{Op: "snapshot", Field: "nodes", Want: strconv.Itoa(len(want)), Got: strconv.Itoa(len(got))})
	}
	for i := range min(len(want), len(got)) {
		if want[i].Encoding != got[i].Encoding {
			out = append(out, Mismatch{
				Op:    "snapshot",
				Field: "node " + strconv.Itoa(want[i].ID),
				Want:  want[i].Encoding,
				Got:   got[i].Encoding,
			})
			break
		}
	}
	if len(out) == 0 {
		out = append(out, Mismatch{Op: "snapshot", Field: "fingerprint", Want: sess.Fingerprint, Got: "different fingerprint"})
	}
	return out, nil
}
