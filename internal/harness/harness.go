package harness

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/irgraph/internal/ctxlog"
	"github.com/roach88/irgraph/internal/graph"
	"github.com/roach88/irgraph/internal/ir"
	"github.com/roach88/irgraph/internal/registry"
)

// Kernel is the construction surface a scenario drives. *graph.Graph
// implements it; a journal wraps it to record every call.
type Kernel interface {
	InitSingletons() error
	CreateNode(k *registry.Kind, block *graph.Node, inputs []*graph.Node, init graph.Init) (*graph.Node, error)
	Project(tuple *graph.Node, index int) (*graph.Node, error)
	ProjectNamed(tuple *graph.Node, name string) (*graph.Node, error)
	NewPlaceholder(m ir.Mode) (*graph.Node, error)
	AddPredecessor(block, pred *graph.Node) error
	Mature(block *graph.Node) error
	SetInput(n *graph.Node, index int, v *graph.Node) error
	AppendInput(n, v *graph.Node) error
	SetAttr(n *graph.Node, name string, v ir.AttrValue) error
	SetThrowsException(n *graph.Node, throws bool) error
	SetBackedge(n *graph.Node, i int) error
}

// Finisher is implemented by kernels that must flush once the scenario's
// last step ran.
type Finisher interface {
	Finish(ctx context.Context) error
}

// WrapFunc returns the kernel a scenario runs through. The graph is fresh
// and syms holds the scenario's declarations.
type WrapFunc func(ctx context.Context, g *graph.Graph, syms *ir.Symbols) (Kernel, error)

type config struct {
	reg  *registry.Registry
	wrap WrapFunc
}

// Option configures Run.
type Option func(*config)

// WithRegistry runs against r instead of registry.Default().
func WithRegistry(r *registry.Registry) Option {
	return func(c *config) { c.reg = r }
}

// WithKernel routes every kernel call through the kernel wrap returns.
func WithKernel(wrap WrapFunc) Option {
	return func(c *config) { c.wrap = wrap }
}

// Run executes sc against a fresh graph. Unmet expectations are reported
// in the result; the error is reserved for scenarios that cannot start
// and for cancellation.
func Run(ctx context.Context, sc *Scenario, opts ...Option) (*Result, error) {
	cfg := config{reg: registry.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := ctxlog.FromContext(ctx).With("scenario", sc.Name)

	syms := ir.NewSymbols()
	if err := syms.Declare(sc.Types, sc.Entities); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	name, entity, err := signature(sc, syms)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	gopts := []graph.Option{graph.WithName(name), graph.WithRegistry(cfg.reg), graph.WithLogger(logger)}
	if entity != nil {
		gopts = append(gopts, graph.WithEntity(entity))
	}
	g := graph.New(gopts...)

	var k Kernel = g
	if cfg.wrap != nil {
		if k, err = cfg.wrap(ctx, g, syms); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
	}

	r := &runner{
		g:      g,
		k:      k,
		reg:    cfg.reg,
		syms:   syms,
		names:  make(map[string]*graph.Node),
		labels: make(map[*graph.Node]string),
		res:    NewResult(sc.Name),
		log:    logger,
	}
	for i := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.step(i+1, &sc.Steps[i])
	}

	if f, ok := k.(Finisher); ok {
		if err := f.Finish(ctx); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
	}

	r.res.Nodes = g.Len()
	fp, err := g.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	r.res.Fingerprint = fp
	logger.Info("scenario finished", "pass", r.res.Pass, "steps", len(sc.Steps), "nodes", r.res.Nodes)
	return r.res, nil
}

// RunAll runs the scenarios in parallel, one graph each. Results are in
// input order. The first scenario that cannot run cancels the rest.
func RunAll(ctx context.Context, scenarios []*Scenario, opts ...Option) ([]*Result, error) {
	results := make([]*Result, len(scenarios))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, sc := range scenarios {
		eg.Go(func() error {
			res, err := Run(ctx, sc, opts...)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// signature resolves the graph's name and entity. A params/results
// signature is declared into syms so journals can rebuild it.
func signature(sc *Scenario, syms *ir.Symbols) (string, *ir.Entity, error) {
	spec := sc.Graph
	if spec == nil {
		return sc.Name, nil, nil
	}
	name := spec.Name
	if name == "" {
		name = sc.Name
	}
	if spec.Entity != "" {
		e, ok := syms.Entity(spec.Entity)
		if !ok {
			return "", nil, fmt.Errorf("graph entity %q is not declared", spec.Entity)
		}
		if !e.Type.IsMethod() {
			return "", nil, fmt.Errorf("graph entity %q does not have a method type", spec.Entity)
		}
		return name, e, nil
	}
	if len(spec.Params) == 0 && len(spec.Results) == 0 {
		return name, nil, nil
	}

	var types []ir.TypeDecl
	for _, m := range slices.Concat(spec.Params, spec.Results) {
		if _, ok := syms.Type(m); ok || slices.ContainsFunc(types, func(d ir.TypeDecl) bool { return d.Name == m }) {
			continue
		}
		types = append(types, ir.TypeDecl{Name: m, Kind: "primitive", Mode: m})
	}
	sig := name + "_type"
	types = append(types, ir.TypeDecl{Name: sig, Kind: "method", Params: spec.Params, Results: spec.Results})
	if err := syms.Declare(types, []ir.EntityDecl{{Name: name, Type: sig}}); err != nil {
		return "", nil, fmt.Errorf("graph signature: %w", err)
	}
	e, _ := syms.Entity(name)
	return name, e, nil
}

type runner struct {
	g    *graph.Graph
	k    Kernel
	reg  *registry.Registry
	syms *ir.Symbols
	res  *Result
	log  *slog.Logger

	names  map[string]*graph.Node
	labels map[*graph.Node]string
}

func (r *runner) step(seq int, s *Step) {
	var (
		text     string
		n        *graph.Node
		err      error
		findings []ir.ErrorCode
	)
	switch s.Op {
	case OpInit:
		err = r.k.InitSingletons()
	case OpCreate:
		text, n, err = r.create(s)
	case OpProject:
		text, n, err = r.project(s)
	case OpPlaceholder:
		text = s.As
		m, _ := ir.ParseMode(s.Mode)
		if n, err = r.k.NewPlaceholder(m); err == nil {
			text += " mode=" + n.Mode().String()
		}
	case OpAddPred:
		text, n, err = r.pair(s, "<-", r.k.AddPredecessor, func(b *graph.Node) string {
			return fmt.Sprintf("preds=%d", b.NumPreds())
		})
	case OpAppendInput:
		text, n, err = r.pair(s, "<-", r.k.AppendInput, func(x *graph.Node) string {
			return fmt.Sprintf("inputs=%d", x.NumInputs())
		})
	case OpMature:
		text = s.Node
		if n, err = r.lookup(s.Node); err == nil {
			err = r.k.Mature(n)
			if n.IsMatured() {
				text += fmt.Sprintf(" preds=%d", n.NumPreds())
			}
		}
	case OpSetInput:
		text, n, err = r.setInput(s)
	case OpSetAttr:
		text, n, err = r.setAttr(s)
	case OpSetThrows:
		text = fmt.Sprintf("%s = %t", s.Node, *s.Throws)
		if n, err = r.lookup(s.Node); err == nil {
			err = r.k.SetThrowsException(n, *s.Throws)
		}
	case OpSetBackedge:
		text = fmt.Sprintf("%s[%d]", s.Node, *s.Index)
		if n, err = r.lookup(s.Node); err == nil {
			err = r.k.SetBackedge(n, *s.Index)
		}
	case OpVerify:
		for _, f := range r.g.Verify() {
			findings = append(findings, ir.CodeOf(f))
		}
		text = "ok"
		if len(findings) > 0 {
			text = joinCodes(findings)
		}
	default:
		err = fmt.Errorf("unknown step operation %q", s.Op)
	}

	if err == nil && n != nil && s.As != "" {
		r.bind(s.As, n)
	}

	ev := TraceEvent{Seq: int64(seq), Op: s.Op, Text: strings.TrimSpace(text)}
	if err != nil {
		ev.Error = string(ir.CodeOf(err))
		if ev.Error == "" {
			ev.Error = err.Error()
		}
	}
	r.res.Trace = append(r.res.Trace, ev)
	r.log.Debug("step", "seq", seq, "op", s.Op, "text", text, "error", ev.Error)

	r.check(seq, s, n, err, findings)
}

func (r *runner) create(s *Step) (string, *graph.Node, error) {
	text := s.Kind
	if s.As != "" {
		text = s.As + " = " + s.Kind
	}
	k, err := r.reg.Lookup(s.Kind)
	if err != nil {
		return text, nil, err
	}
	block, err := r.lookupOptional(s.Block)
	if err != nil {
		return text, nil, err
	}
	inputs, err := r.lookupAll(s.Inputs)
	if err != nil {
		return text, nil, err
	}
	init := graph.Init{}
	if init.Attrs, err = r.decodeAttrs(k, s.Attrs); err != nil {
		return text, nil, err
	}
	if init.Flags, err = ir.ParseConsFlags(s.Flags); err != nil {
		return text, nil, ir.NewError(ir.ErrCodeInvalidFlags, "%v", err).WithKind(k.Name)
	}
	if s.Mode != "" {
		init.Mode, _ = ir.ParseMode(s.Mode)
	}

	n, err := r.k.CreateNode(k, block, inputs, init)
	if err != nil {
		return text, nil, err
	}
	return fmt.Sprintf("%s mode=%s block=%s", text, n.Mode(), r.label(n.Block())), n, nil
}

func (r *runner) project(s *Step) (string, *graph.Node, error) {
	var text string
	if s.Index != nil {
		text = fmt.Sprintf("%s.%d", s.Node, *s.Index)
	} else {
		text = s.Node + "." + s.Output
	}
	if s.As != "" {
		text = s.As + " = " + text
	}
	tuple, err := r.lookup(s.Node)
	if err != nil {
		return text, nil, err
	}
	var n *graph.Node
	if s.Index != nil {
		n, err = r.k.Project(tuple, *s.Index)
	} else {
		n, err = r.k.ProjectNamed(tuple, s.Output)
	}
	if err != nil {
		return text, nil, err
	}
	return text + " mode=" + n.Mode().String(), n, nil
}

// pair runs a call taking a target and a value node, describing the
// target afterwards.
func (r *runner) pair(s *Step, arrow string, call func(a, b *graph.Node) error, describe func(*graph.Node) string) (string, *graph.Node, error) {
	text := fmt.Sprintf("%s %s %s", s.Node, arrow, s.Value)
	n, err := r.lookup(s.Node)
	if err != nil {
		return text, nil, err
	}
	v, err := r.lookup(s.Value)
	if err != nil {
		return text, nil, err
	}
	if err := call(n, v); err != nil {
		return text, n, err
	}
	return text + " " + describe(n), n, nil
}

func (r *runner) setInput(s *Step) (string, *graph.Node, error) {
	text := fmt.Sprintf("%s[%d] = %s", s.Node, *s.Index, s.Value)
	n, err := r.lookup(s.Node)
	if err != nil {
		return text, nil, err
	}
	v, err := r.lookup(s.Value)
	if err != nil {
		return text, nil, err
	}
	if err := r.k.SetInput(n, *s.Index, v); err != nil {
		return text, n, err
	}
	if n.IsBackedge(*s.Index) {
		text += " backedge"
	}
	return text, n, nil
}

func (r *runner) setAttr(s *Step) (string, *graph.Node, error) {
	keys := make([]string, 0, len(s.Attrs))
	for k := range s.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	text := s.Node + " " + strings.Join(keys, ",")

	n, err := r.lookup(s.Node)
	if err != nil {
		return text, nil, err
	}
	attrs, err := r.decodeAttrs(n.Kind(), s.Attrs)
	if err != nil {
		return text, n, err
	}
	for _, key := range keys {
		if err := r.k.SetAttr(n, key, attrs[key]); err != nil {
			return text, n, err
		}
	}
	return text, n, nil
}

func (r *runner) decodeAttrs(k *registry.Kind, raw map[string]any) (map[string]ir.AttrValue, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]ir.AttrValue, len(raw))
	for _, name := range ir.SortedKeys(raw) {
		spec, ok := k.Attr(name)
		if !ok {
			return nil, ir.NewError(ir.ErrCodeInvalidAttribute, "kind %s has no attribute %q", k.Name, name).WithKind(k.Name)
		}
		v, err := ir.DecodeAttr(spec.Type, raw[name], r.syms)
		if err != nil {
			return nil, ir.NewError(ir.ErrCodeInvalidAttribute, "attribute %q: %v", name, err).WithKind(k.Name)
		}
		out[name] = v
	}
	return out, nil
}

func (r *runner) bind(name string, n *graph.Node) {
	r.names[name] = n
	if _, ok := r.labels[n]; !ok {
		r.labels[n] = name
	}
}

// lookup resolves a scenario binding, falling back to anchor roles.
func (r *runner) lookup(name string) (*graph.Node, error) {
	if n, ok := r.names[name]; ok {
		return n, nil
	}
	role, err := graph.ParseRole(name)
	if err != nil {
		return nil, fmt.Errorf("name %q is not bound", name)
	}
	n, ok := r.g.Anchor(role)
	if !ok {
		return nil, fmt.Errorf("anchor role %s is not set", role)
	}
	return n, nil
}

func (r *runner) lookupOptional(name string) (*graph.Node, error) {
	if name == "" {
		return nil, nil
	}
	return r.lookup(name)
}

func (r *runner) lookupAll(names []string) ([]*graph.Node, error) {
	out := make([]*graph.Node, len(names))
	for i, name := range names {
		n, err := r.lookup(name)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// label names n for the trace: its first binding, else its anchor role,
// else its kind and id.
func (r *runner) label(n *graph.Node) string {
	if n == nil {
		return "-"
	}
	if name, ok := r.labels[n]; ok {
		return name
	}
	for _, role := range graph.Roles() {
		if a, ok := r.g.Anchor(role); ok && a == n {
			return role.String()
		}
	}
	return n.String()
}

func (r *runner) check(seq int, s *Step, n *graph.Node, err error, findings []ir.ErrorCode) {
	fail := func(format string, args ...any) {
		r.res.AddErrorf("step %d (%s): %s", seq, s.Op, fmt.Sprintf(format, args...))
	}
	e := s.Expect
	if e == nil {
		e = &Expect{}
	}

	switch {
	case e.Error == "" && err != nil:
		fail("unexpected error: %v", err)
	case e.Error != "" && err == nil:
		fail("expected error %s, got success", e.Error)
	case e.Error != "" && string(ir.CodeOf(err)) != e.Error:
		fail("expected error %s, got %v", e.Error, err)
	}

	if e.Count != nil && r.g.Len() != *e.Count {
		fail("node count = %d, want %d", r.g.Len(), *e.Count)
	}
	if s.Op == OpVerify {
		want := make([]ir.ErrorCode, len(e.Findings))
		for i, f := range e.Findings {
			want[i] = ir.ErrorCode(f)
		}
		if !slices.Equal(findings, want) {
			fail("findings = [%s], want [%s]", joinCodes(findings), joinCodes(want))
		}
	}
	if err != nil {
		return
	}

	nodeChecks := e.Mode != "" || e.Block != "" || e.Pin != "" || e.Preds != nil || e.Inputs != nil ||
		e.Same != "" || e.Throws != nil || e.Outputs != nil || e.Matured != nil
	if !nodeChecks {
		return
	}
	if n == nil {
		fail("%s has no node to check", s.Op)
		return
	}

	if e.Mode != "" && n.Mode().String() != e.Mode {
		fail("%s mode = %s, want %s", r.label(n), n.Mode(), e.Mode)
	}
	if e.Block != "" {
		if want, lerr := r.lookup(e.Block); lerr != nil || n.Block() != want {
			fail("%s block = %s, want %s", r.label(n), r.label(n.Block()), e.Block)
		}
	}
	if e.Pin != "" && n.PinState().String() != e.Pin {
		fail("%s pin = %s, want %s", r.label(n), n.PinState(), e.Pin)
	}
	if e.Preds != nil && n.NumPreds() != *e.Preds {
		fail("%s preds = %d, want %d", r.label(n), n.NumPreds(), *e.Preds)
	}
	if e.Inputs != nil {
		got := make([]string, n.NumInputs())
		for i, in := range n.Inputs() {
			got[i] = r.label(in)
		}
		want, lerr := r.lookupAll(e.Inputs)
		if lerr != nil || !slices.Equal(n.Inputs(), want) {
			fail("%s inputs = [%s], want [%s]", r.label(n), strings.Join(got, ","), strings.Join(e.Inputs, ","))
		}
	}
	if e.Same != "" {
		if want, lerr := r.lookup(e.Same); lerr != nil || n != want {
			fail("%s is not %s", r.label(n), e.Same)
		}
	}
	if e.Throws != nil && n.ThrowsException() != *e.Throws {
		fail("%s throws = %t, want %t", r.label(n), n.ThrowsException(), *e.Throws)
	}
	if e.Outputs != nil && r.g.NumOutputs(n) != *e.Outputs {
		fail("%s outputs = %d, want %d", r.label(n), r.g.NumOutputs(n), *e.Outputs)
	}
	if e.Matured != nil && n.IsMatured() != *e.Matured {
		fail("%s matured = %t, want %t", r.label(n), n.IsMatured(), *e.Matured)
	}
}

func joinCodes(codes []ir.ErrorCode) string {
	s := make([]string, len(codes))
	for i, c := range codes {
		s[i] = string(c)
	}
	return strings.Join(s, ",")
}
