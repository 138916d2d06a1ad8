package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/irgraph/internal/graph"
	"github.com/roach88/irgraph/internal/ir"
)

func nodeID(n *graph.Node) int {
	if n == nil {
		return NoNode
	}
	return n.ID()
}

func nodeIDs(ns []*graph.Node) []int {
	out := make([]int, len(ns))
	for i, n := range ns {
		out[i] = nodeID(n)
	}
	return out
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if c := ir.CodeOf(err); c != "" {
		return string(c)
	}
	return err.Error()
}

func encodeAttrs(attrs map[string]ir.AttrValue) (map[string]any, error) {
	out := make(map[string]any, len(attrs))
	for _, name := range ir.SortedKeys(attrs) {
		v, err := ir.EncodeAttr(attrs[name])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func marshalIDs(ids []int) (string, error) {
	vals := make([]any, len(ids))
	for i, id := range ids {
		vals[i] = int64(id)
	}
	data, err := ir.MarshalCanonical(vals)
	if err != nil {
		return "", fmt.Errorf("marshal ids: %w", err)
	}
	return string(data), nil
}

func marshalAttrs(attrs map[string]any) (string, error) {
	if attrs == nil {
		attrs = map[string]any{}
	}
	data, err := ir.MarshalCanonical(attrs)
	if err != nil {
		return "", fmt.Errorf("marshal attrs: %w", err)
	}
	return string(data), nil
}

func marshalFlags(flags []string) (string, error) {
	if flags == nil {
		flags = []string{}
	}
	data, err := ir.MarshalCanonical(flags)
	if err != nil {
		return "", fmt.Errorf("marshal flags: %w", err)
	}
	return string(data), nil
}

type symbolsDoc struct {
	Types    []ir.TypeDecl   `json:"types"`
	Entities []ir.EntityDecl `json:"entities"`
}

func marshalSymbols(types []ir.TypeDecl, entities []ir.EntityDecl) (string, error) {
	doc := symbolsDoc{Types: types, Entities: entities}
	if doc.Types == nil {
		doc.Types = []ir.TypeDecl{}
	}
	if doc.Entities == nil {
		doc.Entities = []ir.EntityDecl{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal symbols: %w", err)
	}
	return string(data), nil
}

func unmarshalSymbols(data string) ([]ir.TypeDecl, []ir.EntityDecl, error) {
	var doc symbolsDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, nil, fmt.Errorf("unmarshal symbols: %w", err)
	}
	return doc.Types, doc.Entities, nil
}

// unmarshalPlain decodes canonical JSON back into the plain values
// ir.DecodeAttr accepts. Numbers are decoded as int64; canonical JSON
// holds no floats, and float64 would lose precision above 2^53.
func unmarshalPlain(data string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return fromNumbers(v)
}

func fromNumbers(v any) (any, error) {
	switch val := v.(type) {
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number %s is not an integer", val)
		}
		return n, nil
	case []any:
		for i, elem := range val {
			conv, err := fromNumbers(elem)
			if err != nil {
				return nil, err
			}
			val[i] = conv
		}
		return val, nil
	case map[string]any:
		for k, elem := range val {
			conv, err := fromNumbers(elem)
			if err != nil {
				return nil, err
			}
			val[k] = conv
		}
		return val, nil
	}
	return v, nil
}

func unmarshalAttrs(data string) (map[string]any, error) {
	v, err := unmarshalPlain(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal attrs: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unmarshal attrs: want object, got %T", v)
	}
	return m, nil
}

func unmarshalIDs(data string) ([]int, error) {
	var ids []int
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal ids: %w", err)
	}
	if ids == nil {
		ids = []int{}
	}
	return ids, nil
}

func unmarshalFlags(data string) ([]string, error) {
	var flags []string
	if err := json.Unmarshal([]byte(data), &flags); err != nil {
		return nil, fmt.Errorf("unmarshal flags: %w", err)
	}
	return flags, nil
}
