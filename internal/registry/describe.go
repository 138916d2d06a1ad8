package registry

import "github.com/roach88/irgraph/internal/ir"

// Schema is the plain-data description of a kind: the field set that code
// generators and documentation tools consume.
type Schema struct {
	Name            string         `json:"name" yaml:"name"`
	Doc             string         `json:"doc" yaml:"doc"`
	Inputs          []PortSchema   `json:"inputs" yaml:"inputs"`
	Arity           string         `json:"arity" yaml:"arity"`
	InputName       string         `json:"input_name,omitempty" yaml:"input_name,omitempty"`
	CountAttr       string         `json:"count_attr,omitempty" yaml:"count_attr,omitempty"`
	Outputs         []OutputSchema `json:"outputs" yaml:"outputs"`
	Results         string         `json:"results" yaml:"results"`
	ResultAttr      string         `json:"result_attr,omitempty" yaml:"result_attr,omitempty"`
	Attrs           []AttrSchema   `json:"attrs" yaml:"attrs"`
	ConsFlags       []string       `json:"cons_flags" yaml:"cons_flags"`
	Flags           []string       `json:"flags" yaml:"flags"`
	Pinning         string         `json:"pinning" yaml:"pinning"`
	PinInit         string         `json:"pin_init" yaml:"pin_init"`
	Throws          string         `json:"throws" yaml:"throws"`
	Mode            string         `json:"mode" yaml:"mode"`
	Block           string         `json:"block" yaml:"block"`
	Singleton       bool           `json:"singleton" yaml:"singleton"`
	CustomConstruct bool           `json:"custom_construct" yaml:"custom_construct"`
	CustomEncode    bool           `json:"custom_encode" yaml:"custom_encode"`
	Binary          bool           `json:"binary" yaml:"binary"`
	OpIndex         int            `json:"op_index" yaml:"op_index"`
}

// PortSchema describes one input role.
type PortSchema struct {
	Name string `json:"name" yaml:"name"`
	Doc  string `json:"doc" yaml:"doc"`
}

// OutputSchema describes one tuple component.
type OutputSchema struct {
	Name   string `json:"name" yaml:"name"`
	Doc    string `json:"doc" yaml:"doc"`
	Mode   string `json:"mode" yaml:"mode"`
	Nested string `json:"nested,omitempty" yaml:"nested,omitempty"`
}

// AttrSchema describes one attribute.
type AttrSchema struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Doc      string `json:"doc,omitempty" yaml:"doc,omitempty"`
	Default  string `json:"default,omitempty" yaml:"default,omitempty"`
	NoProp   bool   `json:"noprop,omitempty" yaml:"noprop,omitempty"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	ToFlags  bool   `json:"to_flags,omitempty" yaml:"to_flags,omitempty"`
}

// Describe returns the schema of k. It is pure and total.
func Describe(k *Kind) Schema {
	s := Schema{
		Name:            k.Name,
		Doc:             k.Doc,
		Inputs:          make([]PortSchema, len(k.Inputs)),
		Arity:           k.Arity.String(),
		InputName:       k.InputName,
		CountAttr:       k.CountAttr,
		Outputs:         make([]OutputSchema, len(k.Outputs)),
		Results:         k.Results.String(),
		ResultAttr:      k.ResultAttr,
		Attrs:           make([]AttrSchema, len(k.Attrs)),
		ConsFlags:       k.ConsFlags.Names(),
		Flags:           k.Flags.Names(),
		Pinning:         k.Pinning.String(),
		PinInit:         k.PinInit.String(),
		Throws:          k.ThrowsInit.String(),
		Mode:            k.Mode.String(),
		Block:           k.Block.String(),
		Singleton:       k.Singleton,
		CustomConstruct: k.CustomConstruct,
		CustomEncode:    k.CustomEncode,
		Binary:          k.Binary,
		OpIndex:         k.OpIndex,
	}
	if s.ConsFlags == nil {
		s.ConsFlags = []string{}
	}
	for i, p := range k.Inputs {
		s.Inputs[i] = PortSchema{Name: p.Name, Doc: p.Doc}
	}
	for i, o := range k.Outputs {
		out := OutputSchema{Name: o.Name, Doc: o.Doc, Mode: o.Mode.String()}
		if o.Nested != NestedNone {
			out.Nested = o.Nested.String()
		}
		s.Outputs[i] = out
	}
	for i, a := range k.Attrs {
		s.Attrs[i] = AttrSchema{
			Name:     a.Name,
			Type:     a.Type.String(),
			Doc:      a.Doc,
			Default:  a.DeriveDoc,
			NoProp:   a.NoProp,
			Optional: a.Optional,
			ToFlags:  a.ToFlags != nil,
		}
	}
	return s
}

// Describe returns the schema of the named kind.
func (r *Registry) Describe(name string) (Schema, error) {
	k, err := r.Lookup(name)
	if err != nil {
		return Schema{}, err
	}
	return Describe(k), nil
}

// DescribeAll returns the schemas of every kind in catalog order.
func (r *Registry) DescribeAll() []Schema {
	out := make([]Schema, len(r.kinds))
	for i, k := range r.kinds {
		out[i] = Describe(k)
	}
	return out
}

// HasFlagNamed reports whether k declares the catalog flag name.
func (k *Kind) HasFlagNamed(name string) bool {
	f, err := ir.ParseFlag(name)
	return err == nil && k.Has(f)
}
