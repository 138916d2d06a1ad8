package graph

import (
	"log/slog"

	"github.com/roach88/irgraph/internal/ir"
	"github.com/roach88/irgraph/internal/registry"
)

// Graph is one function's SSA graph.
//
// Thread-safety model:
//   - A Graph is NOT safe for concurrent mutation. Node creation, maturation
//     and backedge resolution must be confined to one goroutine or
//     serialized by the caller.
//   - Distinct graphs share nothing mutable; any number may be built in
//     parallel against the same (read-only) Registry.
//
// INVARIANTS:
//   - Node ids are dense, start at 0 (the anchor) and never repeat
//   - At most one node per singleton kind exists at any time
//   - Every node except blocks and the anchor has an owning block
type Graph struct {
	name   string
	entity *ir.Entity
	reg    *registry.Registry
	log    *slog.Logger

	arena  arena
	nodes  []*Node
	anchor *Node
	projs  map[projKey]*Node
	freed  bool
}

type projKey struct {
	tuple int
	index int
}

// Option configures a graph at creation.
type Option func(*Graph)

// WithName sets the graph's name, used in log lines and encodings.
func WithName(name string) Option {
	return func(g *Graph) {
		g.name = name
	}
}

// WithEntity sets the entity of the function the graph implements. Its
// method type determines the components of the Start node's argument tuple.
func WithEntity(e *ir.Entity) Option {
	return func(g *Graph) {
		g.entity = e
	}
}

// WithLogger sets the logger for construction events.
// Default: a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.log = l
		}
	}
}

// WithRegistry sets the kind catalog. Default: registry.Default().
func WithRegistry(r *registry.Registry) Option {
	return func(g *Graph) {
		if r != nil {
			g.reg = r
		}
	}
}

// New creates a graph holding its anchor (id 0), the matured entry block
// (id 1) and the immature exit block (id 2). The remaining singletons are
// created by the caller, or all at once by InitSingletons.
func New(opts ...Option) *Graph {
	g := &Graph{
		reg:   registry.Default(),
		log:   slog.New(slog.DiscardHandler),
		projs: make(map[projKey]*Node),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.name == "" && g.entity != nil {
		g.name = g.entity.Name
	}
	g.log = g.log.With("graph", g.name)

	anchorKind := g.reg.ByOp(ir.OpAnchor)
	g.anchor = g.insert(anchorKind, nil, make([]*Node, numRoles-1), nil, ir.ModeANY, ir.PinStatePinned)

	blockKind := g.reg.ByOp(ir.OpBlock)
	entry := g.insert(blockKind, nil, nil, map[string]ir.AttrValue{}, ir.ModeBB, ir.PinStatePinned)
	entry.blk.matured = true
	exit := g.insert(blockKind, nil, nil, map[string]ir.AttrValue{}, ir.ModeBB, ir.PinStatePinned)
	g.setRole(RoleStartBlock, entry)
	g.setRole(RoleEndBlock, exit)

	g.log.Debug("graph created")
	return g
}

// InitSingletons creates Start, End (no keepalives), NoMem, Bad and Unknown
// through the regular construction path. It fails with DUPLICATE_SINGLETON
// if any of them already exists.
func (g *Graph) InitSingletons() error {
	steps := []struct {
		op   ir.Op
		init Init
	}{
		{ir.OpStart, Init{}},
		{ir.OpEnd, Init{Attrs: map[string]ir.AttrValue{"n_keepalives": ir.Size(0)}}},
		{ir.OpNoMem, Init{}},
		{ir.OpBad, Init{}},
		{ir.OpUnknown, Init{}},
	}
	for _, s := range steps {
		if _, err := g.NewNode(s.op, nil, nil, s.init); err != nil {
			return err
		}
	}
	return nil
}

// Name returns the graph's name.
func (g *Graph) Name() string { return g.name }

// Entity returns the function entity, or nil.
func (g *Graph) Entity() *ir.Entity { return g.entity }

// Registry returns the catalog the graph was built against.
func (g *Graph) Registry() *registry.Registry { return g.reg }

// Len returns the number of nodes created so far.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node with the given id.
func (g *Graph) Node(id int) (*Node, bool) {
	if g.freed || id < 0 || id >= len(g.nodes) {
		return nil, false
	}
	return g.nodes[id], true
}

// Nodes returns every node in id order. The slice is a copy.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Freed reports whether Free was called.
func (g *Graph) Freed() bool { return g.freed }

// Free releases every node at once. Any later operation on the graph, or
// on one of its nodes, fails with GRAPH_FREED.
func (g *Graph) Free() {
	if g.freed {
		return
	}
	g.log.Debug("graph freed", "nodes", len(g.nodes))
	g.freed = true
	g.arena.release()
	g.nodes = nil
	g.projs = nil
	g.anchor = nil
}

func (g *Graph) checkLive() error {
	if g.freed {
		return ir.NewError(ir.ErrCodeGraphFreed, "graph %q was freed", g.name)
	}
	return nil
}

// owns reports whether n is a live node of g.
func (g *Graph) owns(n *Node) bool {
	return n != nil && n.graph == g && n.id < len(g.nodes) && g.nodes[n.id] == n
}

// insert allocates and links a new node. All validation happens before.
func (g *Graph) insert(k *registry.Kind, block *Node, inputs []*Node, attrs map[string]ir.AttrValue, mode ir.Mode, pin ir.PinState) *Node {
	n := g.arena.alloc()
	n.id = len(g.nodes)
	n.graph = g
	n.kind = k
	n.block = block
	n.inputs = inputs
	n.attrs = attrs
	n.mode = mode
	n.pin = pin
	if k.Op == ir.OpBlock || k.Op == ir.OpPhi {
		n.backedges = make([]bool, len(inputs))
	}
	if k.Op == ir.OpBlock {
		n.blk = &blockInfo{}
	}
	g.nodes = append(g.nodes, n)

	if block != nil {
		block.blk.members = append(block.blk.members, n)
		if k.Op == ir.OpPhi {
			block.blk.phis = append(block.blk.phis, n)
		}
	}
	if k.Op == ir.OpProj && len(inputs) == 1 {
		key := projKey{tuple: inputs[0].id, index: int(n.attrs["proj"].(ir.Long))}
		if _, ok := g.projs[key]; !ok {
			g.projs[key] = n
		}
	}
	return n
}
