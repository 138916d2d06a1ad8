package ir

import (
	"fmt"
	"sort"
)

// Symbols resolves type and entity names. Attribute encodings refer to
// types and entities by name, so decoding needs the table that defined
// them. A Symbols value is not safe for concurrent mutation.
type Symbols struct {
	types    map[string]*Type
	entities map[string]*Entity

	// definition order, for Decls
	typeOrder   []string
	entityOrder []string
}

// NewSymbols returns a table holding only the unknown type.
func NewSymbols() *Symbols {
	s := &Symbols{
		types:    make(map[string]*Type),
		entities: make(map[string]*Entity),
	}
	s.types[unknownType.Name] = unknownType
	return s
}

// DefineType registers t under its name.
func (s *Symbols) DefineType(t *Type) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("type must have a name")
	}
	if _, ok := s.types[t.Name]; ok {
		return fmt.Errorf("type %q already defined", t.Name)
	}
	s.types[t.Name] = t
	s.typeOrder = append(s.typeOrder, t.Name)
	return nil
}

// DefineEntity registers e under its name.
func (s *Symbols) DefineEntity(e *Entity) error {
	if e == nil || e.Name == "" {
		return fmt.Errorf("entity must have a name")
	}
	if _, ok := s.entities[e.Name]; ok {
		return fmt.Errorf("entity %q already defined", e.Name)
	}
	s.entities[e.Name] = e
	s.entityOrder = append(s.entityOrder, e.Name)
	return nil
}

// Type looks up a type by name.
func (s *Symbols) Type(name string) (*Type, bool) {
	t, ok := s.types[name]
	return t, ok
}

// Entity looks up an entity by name.
func (s *Symbols) Entity(name string) (*Entity, bool) {
	e, ok := s.entities[name]
	return e, ok
}

// TypeNames returns the defined type names, sorted.
func (s *Symbols) TypeNames() []string {
	names := make([]string, 0, len(s.types))
	for n := range s.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TypeDecl is the plain form of a type definition, as written in scenario
// files and journals. Referenced types must be declared earlier.
type TypeDecl struct {
	Name    string   `json:"name" yaml:"name" hcl:"name,label" validate:"required"`
	Kind    string   `json:"kind" yaml:"kind" hcl:"kind" validate:"required,oneof=primitive pointer method array struct"`
	Mode    string   `json:"mode,omitempty" yaml:"mode,omitempty" hcl:"mode,optional"`
	Elem    string   `json:"elem,omitempty" yaml:"elem,omitempty" hcl:"elem,optional"`
	Params  []string `json:"params,omitempty" yaml:"params,omitempty" hcl:"params,optional"`
	Results []string `json:"results,omitempty" yaml:"results,omitempty" hcl:"results,optional"`
}

// EntityDecl is the plain form of an entity definition. An entity owned by
// a struct type becomes one of its members.
type EntityDecl struct {
	Name  string `json:"name" yaml:"name" hcl:"name,label" validate:"required"`
	Type  string `json:"type" yaml:"type" hcl:"type" validate:"required"`
	Owner string `json:"owner,omitempty" yaml:"owner,omitempty" hcl:"owner,optional"`
}

// Declare defines types then entities, in order.
func (s *Symbols) Declare(types []TypeDecl, entities []EntityDecl) error {
	for _, d := range types {
		t, err := s.buildType(d)
		if err != nil {
			return fmt.Errorf("type %q: %w", d.Name, err)
		}
		if err := s.DefineType(t); err != nil {
			return err
		}
	}
	for _, d := range entities {
		t, ok := s.Type(d.Type)
		if !ok {
			return fmt.Errorf("entity %q: undefined type %q", d.Name, d.Type)
		}
		e := NewEntity(d.Name, t)
		if d.Owner != "" {
			owner, ok := s.Type(d.Owner)
			if !ok {
				return fmt.Errorf("entity %q: undefined owner %q", d.Name, d.Owner)
			}
			if owner.Kind != TypeStruct {
				return fmt.Errorf("entity %q: owner %q is not a struct", d.Name, d.Owner)
			}
			e.Owner = owner
			owner.Members = append(owner.Members, e)
		}
		if err := s.DefineEntity(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Symbols) buildType(d TypeDecl) (*Type, error) {
	kind, err := ParseTypeKind(d.Kind)
	if err != nil {
		return nil, err
	}
	ref := func(name string) (*Type, error) {
		t, ok := s.Type(name)
		if !ok {
			return nil, fmt.Errorf("undefined type %q", name)
		}
		return t, nil
	}
	refs := func(names []string) ([]*Type, error) {
		out := make([]*Type, len(names))
		for i, n := range names {
			t, err := ref(n)
			if err != nil {
				return nil, err
			}
			out[i] = t
		}
		return out, nil
	}

	switch kind {
	case TypePrimitive:
		m, err := ParseMode(d.Mode)
		if err != nil {
			return nil, err
		}
		if !m.IsData() {
			return nil, fmt.Errorf("mode %s is not a data mode", m)
		}
		return NewPrimitiveType(d.Name, m), nil
	case TypePointer, TypeArray:
		elem, err := ref(d.Elem)
		if err != nil {
			return nil, err
		}
		if kind == TypePointer {
			return NewPointerType(d.Name, elem), nil
		}
		return NewArrayType(d.Name, elem), nil
	case TypeMethod:
		params, err := refs(d.Params)
		if err != nil {
			return nil, err
		}
		results, err := refs(d.Results)
		if err != nil {
			return nil, err
		}
		return NewMethodType(d.Name, params, results), nil
	case TypeStruct:
		return NewStructType(d.Name), nil
	}
	return nil, fmt.Errorf("type kind %s cannot be declared", kind)
}

// Decls returns the declarations that rebuild s, in definition order.
func (s *Symbols) Decls() ([]TypeDecl, []EntityDecl) {
	types := make([]TypeDecl, 0, len(s.typeOrder))
	for _, name := range s.typeOrder {
		t := s.types[name]
		d := TypeDecl{Name: t.Name, Kind: t.Kind.String()}
		switch t.Kind {
		case TypePrimitive:
			d.Mode = t.Mode.String()
		case TypePointer, TypeArray:
			d.Elem = t.Elem.Name
		case TypeMethod:
			d.Params = typeNames(t.Params)
			d.Results = typeNames(t.Results)
		}
		types = append(types, d)
	}
	entities := make([]EntityDecl, 0, len(s.entityOrder))
	for _, name := range s.entityOrder {
		e := s.entities[name]
		d := EntityDecl{Name: e.Name, Type: e.Type.Name}
		if e.Owner != nil {
			d.Owner = e.Owner.Name
		}
		entities = append(entities, d)
	}
	return types, entities
}

func typeNames(ts []*Type) []string {
	if len(ts) == 0 {
		return nil
	}
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}
