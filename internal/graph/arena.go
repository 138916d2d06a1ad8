package graph

// chunkSize is the number of nodes allocated per arena chunk.
const chunkSize = 256

// arena hands out nodes from fixed-size chunks. Chunks never move, so node
// pointers stay stable while the graph grows. Nodes are never freed one by
// one; release drops every chunk at once.
type arena struct {
	chunks [][]Node
	n      int
}

func (a *arena) alloc() *Node {
	c := a.n / chunkSize
	if c == len(a.chunks) {
		a.chunks = append(a.chunks, make([]Node, chunkSize))
	}
	n := &a.chunks[c][a.n%chunkSize]
	a.n++
	return n
}

func (a *arena) release() {
	a.chunks = nil
	a.n = 0
}
