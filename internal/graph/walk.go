package graph

// Walk visits every node reachable from the anchor depth-first, following
// inputs and owning blocks. pre runs before a node's operands, post after;
// either may be nil. Each node is visited once, so cycles terminate.
func (g *Graph) Walk(pre, post func(*Node)) {
	if g.freed {
		return
	}
	visited := make([]bool, len(g.nodes))

	var visit func(*Node)
	visit = func(n *Node) {
		if n == nil || visited[n.id] {
			return
		}
		visited[n.id] = true
		if pre != nil {
			pre(n)
		}
		if n.block != nil {
			visit(n.block)
		}
		for _, in := range n.inputs {
			visit(in)
		}
		if post != nil {
			post(n)
		}
	}
	visit(g.anchor)
}

// Reachable returns the nodes Walk visits, in post order.
func (g *Graph) Reachable() []*Node {
	var out []*Node
	g.Walk(nil, func(n *Node) { out = append(out, n) })
	return out
}

// Users returns the nodes that use n as an input, in id order. It is
// computed on demand by scanning the graph.
func (g *Graph) Users(n *Node) []*Node {
	if g.freed || !g.owns(n) {
		return nil
	}
	var out []*Node
	for _, m := range g.nodes {
		if m == g.anchor {
			continue
		}
		for _, in := range m.inputs {
			if in == n {
				out = append(out, m)
				break
			}
		}
	}
	return out
}
