// Package schema exports the node-kind registry as a versioned document.
//
// The document is the compatibility contract with the tools that consume
// the catalog: constructor generators and documentation emitters read it
// instead of linking the registry. Its hash changes whenever any kind's
// schema changes, and Check validates a document against the embedded CUE
// definition of the format.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/irgraph/internal/ir"
	"github.com/roach88/irgraph/internal/registry"
)

// Document is the exported registry.
type Document struct {
	Version string            `json:"version" yaml:"version"`
	Tool    string            `json:"tool" yaml:"tool"`
	Hash    string            `json:"hash" yaml:"hash"`
	Kinds   []registry.Schema `json:"kinds" yaml:"kinds"`
}

// Export describes every kind of r in catalog order and stamps the
// document hash.
func Export(r *registry.Registry) (*Document, error) {
	d := &Document{
		Version: ir.SchemaVersion,
		Tool:    ir.ToolVersion,
		Kinds:   r.DescribeAll(),
	}
	h, err := ir.SchemaHash(d.plain())
	if err != nil {
		return nil, fmt.Errorf("export schema: %w", err)
	}
	d.Hash = h
	return d, nil
}

// Canonical returns the RFC 8785 form the hash is computed over. The tool
// version and the hash itself are excluded.
func (d *Document) Canonical() ([]byte, error) {
	return ir.MarshalCanonical(d.plain())
}

// ComputeHash recomputes the hash of d's content.
func (d *Document) ComputeHash() (string, error) {
	return ir.SchemaHash(d.plain())
}

// JSON returns the indented JSON form.
func (d *Document) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode schema json: %w", err)
	}
	return buf.Bytes(), nil
}

// YAML returns the YAML form.
func (d *Document) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode schema yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode schema yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// Parse decodes a JSON document.
func Parse(data []byte) (*Document, error) {
	var d Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return &d, nil
}

// Kind returns the schema of the named kind.
func (d *Document) Kind(name string) (registry.Schema, bool) {
	for _, k := range d.Kinds {
		if k.Name == name {
			return k, true
		}
	}
	return registry.Schema{}, false
}

func (d *Document) plain() map[string]any {
	kinds := make([]any, len(d.Kinds))
	for i, k := range d.Kinds {
		kinds[i] = plainKind(k)
	}
	return map[string]any{
		"version": d.Version,
		"kinds":   kinds,
	}
}

func plainKind(k registry.Schema) map[string]any {
	inputs := make([]any, len(k.Inputs))
	for i, p := range k.Inputs {
		inputs[i] = map[string]any{"name": p.Name, "doc": p.Doc}
	}
	outputs := make([]any, len(k.Outputs))
	for i, o := range k.Outputs {
		out := map[string]any{"name": o.Name, "doc": o.Doc, "mode": o.Mode}
		if o.Nested != "" {
			out["nested"] = o.Nested
		}
		outputs[i] = out
	}
	attrs := make([]any, len(k.Attrs))
	for i, a := range k.Attrs {
		attr := map[string]any{
			"name":     a.Name,
			"type":     a.Type,
			"noprop":   a.NoProp,
			"optional": a.Optional,
			"to_flags": a.ToFlags,
		}
		if a.Doc != "" {
			attr["doc"] = a.Doc
		}
		if a.Default != "" {
			attr["default"] = a.Default
		}
		attrs[i] = attr
	}
	out := map[string]any{
		"name":             k.Name,
		"doc":              k.Doc,
		"inputs":           inputs,
		"arity":            k.Arity,
		"outputs":          outputs,
		"results":          k.Results,
		"attrs":            attrs,
		"cons_flags":       nonNil(k.ConsFlags),
		"flags":            nonNil(k.Flags),
		"pinning":          k.Pinning,
		"pin_init":         k.PinInit,
		"throws":           k.Throws,
		"mode":             k.Mode,
		"block":            k.Block,
		"singleton":        k.Singleton,
		"custom_construct": k.CustomConstruct,
		"custom_encode":    k.CustomEncode,
		"binary":           k.Binary,
		"op_index":         int64(k.OpIndex),
	}
	if k.InputName != "" {
		out["input_name"] = k.InputName
	}
	if k.CountAttr != "" {
		out["count_attr"] = k.CountAttr
	}
	if k.ResultAttr != "" {
		out["result_attr"] = k.ResultAttr
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
