package graph

import (
	"fmt"

	"github.com/roach88/irgraph/internal/ir"
)

// Encode renders n as plain values ready for ir.MarshalCanonical:
//
//	{"id", "kind", "block"?, "mode", "pin", "inputs", "attrs", "throws"?}
//
// Kinds that declare a custom encoding extend or override these fields
// through their Encoder capability.
func Encode(n *Node) (map[string]any, error) {
	inputs := make([]any, len(n.inputs))
	for i, in := range n.inputs {
		if in == nil {
			inputs[i] = int64(-1)
			continue
		}
		inputs[i] = int64(in.id)
	}

	attrs := make(map[string]any, len(n.attrs))
	for name, v := range n.attrs {
		enc, err := ir.EncodeAttr(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s.%s: %w", n, name, err)
		}
		attrs[name] = enc
	}

	out := map[string]any{
		"id":     int64(n.id),
		"kind":   n.kind.Name,
		"mode":   n.mode.String(),
		"pin":    n.pin.String(),
		"inputs": inputs,
		"attrs":  attrs,
	}
	if n.block != nil {
		out["block"] = int64(n.block.id)
	}
	if n.kind.Has(ir.FlagFragile) {
		out["throws"] = n.throws
	}

	if n.kind.CustomEncode {
		if e, ok := encoderFor(n.kind.Op); ok {
			extra, err := e.Encode(n)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", n, err)
			}
			for k, v := range extra {
				out[k] = v
			}
		}
	}
	return out, nil
}

// EncodeAll encodes every node in id order.
func (g *Graph) EncodeAll() ([]any, error) {
	if err := g.checkLive(); err != nil {
		return nil, err
	}
	out := make([]any, len(g.nodes))
	for i, n := range g.nodes {
		enc, err := Encode(n)
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

// Fingerprint hashes the canonical encoding of every node. Two graphs
// built by identical call sequences have identical fingerprints.
func (g *Graph) Fingerprint() (string, error) {
	nodes, err := g.EncodeAll()
	if err != nil {
		return "", err
	}
	return ir.GraphFingerprint(nodes)
}
