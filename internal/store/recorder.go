package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/irgraph/internal/graph"
	"github.com/roach88/irgraph/internal/ir"
	"github.com/roach88/irgraph/internal/registry"
	"github.com/roach88/irgraph/internal/schema"
)

// Recorder forwards every kernel call to a graph and journals it. Calls
// are buffered; Finish writes the session, its ops and the final node
// snapshot in one transaction.
//
// Like the graph it wraps, a Recorder is not safe for concurrent use.
type Recorder struct {
	store *Store
	g     *graph.Graph
	sess  Session
	ops   []Op
	err   error
	done  bool
}

// NewRecorder starts a session named name for g. syms must hold every
// type and entity the graph's attributes refer to.
func (s *Store) NewRecorder(name string, g *graph.Graph, syms *ir.Symbols) (*Recorder, error) {
	doc, err := schema.Export(g.Registry())
	if err != nil {
		return nil, fmt.Errorf("new recorder: %w", err)
	}
	types, entities := syms.Decls()
	sess := Session{
		ID:          s.ids.Generate(),
		Name:        name,
		Graph:       g.Name(),
		Types:       types,
		Entities:    entities,
		SchemaHash:  doc.Hash,
		ToolVersion: ir.ToolVersion,
	}
	if e := g.Entity(); e != nil {
		sess.Entity = e.Name
	}
	return &Recorder{store: s, g: g, sess: sess}, nil
}

// Graph returns the recorded graph.
func (r *Recorder) Graph() *graph.Graph { return r.g }

// Session returns the session being recorded. Fingerprint and NodeCount
// are set by Finish.
func (r *Recorder) Session() Session { return r.sess }

// Ops returns the calls recorded so far.
func (r *Recorder) Ops() []Op { return r.ops }

func (r *Recorder) record(op Op, err error) {
	op.Seq = int64(len(r.ops) + 1)
	op.Error = errorCode(err)
	r.ops = append(r.ops, op)
}

// fail keeps the first journaling problem; Finish reports it.
func (r *Recorder) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// InitSingletons creates the graph's singletons and journals the call.
func (r *Recorder) InitSingletons() error {
	err := r.g.InitSingletons()
	r.record(newOp(OpInit), err)
	return err
}

// CreateNode journals the request (kind, block, inputs, flags, mode and
// encoded attributes) with the resulting node or error.
func (r *Recorder) CreateNode(k *registry.Kind, block *graph.Node, inputs []*graph.Node, init graph.Init) (*graph.Node, error) {
	n, err := r.g.CreateNode(k, block, inputs, init)

	op := newOp(OpCreate)
	if k != nil {
		op.Kind = k.Name
	}
	op.Block = nodeID(block)
	op.Inputs = nodeIDs(inputs)
	op.Flags = init.Flags.Names()
	if init.Mode != ir.ModeNone {
		op.Mode = init.Mode.String()
	}
	attrs, aerr := encodeAttrs(init.Attrs)
	if aerr != nil {
		r.fail(fmt.Errorf("create %s: %w", op.Kind, aerr))
	}
	op.Attrs = attrs
	op.Result = nodeID(n)
	r.record(op, err)
	return n, err
}

// Project journals a projection by index.
func (r *Recorder) Project(tuple *graph.Node, index int) (*graph.Node, error) {
	n, err := r.g.Project(tuple, index)
	op := newOp(OpProject)
	op.Node = nodeID(tuple)
	op.Index = index
	op.Result = nodeID(n)
	r.record(op, err)
	return n, err
}

// ProjectNamed journals a projection by output name.
func (r *Recorder) ProjectNamed(tuple *graph.Node, name string) (*graph.Node, error) {
	n, err := r.g.ProjectNamed(tuple, name)
	op := newOp(OpProjectNamed)
	op.Node = nodeID(tuple)
	op.Name = name
	op.Result = nodeID(n)
	r.record(op, err)
	return n, err
}

// NewPlaceholder journals a placeholder of mode m.
func (r *Recorder) NewPlaceholder(m ir.Mode) (*graph.Node, error) {
	n, err := r.g.NewPlaceholder(m)
	op := newOp(OpPlaceholder)
	op.Mode = m.String()
	op.Result = nodeID(n)
	r.record(op, err)
	return n, err
}

// AddPredecessor journals a new predecessor of block.
func (r *Recorder) AddPredecessor(block, pred *graph.Node) error {
	err := r.g.AddPredecessor(block, pred)
	op := newOp(OpAddPred)
	op.Node = nodeID(block)
	op.Value = nodeID(pred)
	r.record(op, err)
	return err
}

// Mature journals the maturation of block.
func (r *Recorder) Mature(block *graph.Node) error {
	err := r.g.Mature(block)
	op := newOp(OpMature)
	op.Node = nodeID(block)
	r.record(op, err)
	return err
}

// SetInput journals an input replacement.
func (r *Recorder) SetInput(n *graph.Node, index int, v *graph.Node) error {
	err := r.g.SetInput(n, index, v)
	op := newOp(OpSetInput)
	op.Node = nodeID(n)
	op.Index = index
	op.Value = nodeID(v)
	r.record(op, err)
	return err
}

// AppendInput journals an appended dynamic input.
func (r *Recorder) AppendInput(n, v *graph.Node) error {
	err := r.g.AppendInput(n, v)
	op := newOp(OpAppendInput)
	op.Node = nodeID(n)
	op.Value = nodeID(v)
	r.record(op, err)
	return err
}

// SetAttr journals an attribute change. An accepted value that cannot be
// encoded fails the session at Finish; a rejected one is journaled without
// its value.
func (r *Recorder) SetAttr(n *graph.Node, name string, v ir.AttrValue) error {
	err := r.g.SetAttr(n, name, v)
	op := newOp(OpSetAttr)
	op.Node = nodeID(n)
	op.Name = name
	if v != nil {
		enc, eerr := ir.EncodeAttr(v)
		switch {
		case eerr == nil:
			op.Attrs = map[string]any{name: enc}
		case err == nil:
			r.fail(fmt.Errorf("set_attr %s: %w", name, eerr))
		}
	}
	r.record(op, err)
	return err
}

// SetThrowsException journals the exception flag of a fragile node.
func (r *Recorder) SetThrowsException(n *graph.Node, throws bool) error {
	err := r.g.SetThrowsException(n, throws)
	op := newOp(OpSetThrows)
	op.Node = nodeID(n)
	op.Throws = throws
	r.record(op, err)
	return err
}

// SetBackedge journals a backedge mark.
func (r *Recorder) SetBackedge(n *graph.Node, i int) error {
	err := r.g.SetBackedge(n, i)
	op := newOp(OpSetBackedge)
	op.Node = nodeID(n)
	op.Index = i
	r.record(op, err)
	return err
}

// Finish snapshots the graph and writes the session. It may be called once.
func (r *Recorder) Finish(ctx context.Context) error {
	if r.done {
		return errors.New("recorder: session already finished")
	}
	r.done = true
	if r.err != nil {
		return fmt.Errorf("recorder: %w", r.err)
	}

	nodes, err := Snapshot(r.g)
	if err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	fp, err := r.g.Fingerprint()
	if err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	r.sess.Fingerprint = fp
	r.sess.NodeCount = len(nodes)
	return r.store.WriteSession(ctx, r.sess, r.ops, nodes)
}

// Snapshot encodes every node of g in id order.
func Snapshot(g *graph.Graph) ([]NodeRecord, error) {
	nodes := g.Nodes()
	out := make([]NodeRecord, len(nodes))
	for i, n := range nodes {
		enc, err := graph.Encode(n)
		if err != nil {
			return nil, fmt.Errorf("snapshot node %d: %w", n.ID(), err)
		}
		data, err := ir.MarshalCanonical(enc)
		if err != nil {
			return nil, fmt.Errorf("snapshot node %d: %w", n.ID(), err)
		}
		out[i] = NodeRecord{
			ID:       n.ID(),
			Kind:     n.Kind().Name,
			Block:    nodeID(n.Block()),
			Mode:     n.Mode().String(),
			Pin:      n.PinState().String(),
			Inputs:   nodeIDs(n.Inputs()),
			Encoding: string(data),
		}
	}
	return out, nil
}
