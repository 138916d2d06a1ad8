package ir

import "fmt"

// TypeKind classifies a Type.
type TypeKind uint8

const (
	TypeUnknown TypeKind = iota
	TypePrimitive
	TypePointer
	TypeMethod
	TypeStruct
	TypeArray
)

var typeKindNames = [...]string{
	TypeUnknown:   "unknown",
	TypePrimitive: "primitive",
	TypePointer:   "pointer",
	TypeMethod:    "method",
	TypeStruct:    "struct",
	TypeArray:     "array",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return fmt.Sprintf("TypeKind(%d)", uint8(k))
}

// ParseTypeKind resolves a type kind name.
func ParseTypeKind(name string) (TypeKind, error) {
	for i, n := range typeKindNames {
		if n == name {
			return TypeKind(i), nil
		}
	}
	return TypeUnknown, fmt.Errorf("unknown type kind %q", name)
}

// Type is the minimal type model the node attributes refer to. The full
// type system lives with the frontends; nodes only need names, modes and
// method signatures.
type Type struct {
	Name    string
	Kind    TypeKind
	Mode    Mode    // primitive and pointer types
	Params  []*Type // method types
	Results []*Type // method types
	Elem    *Type   // pointer, array
	Members []*Entity
	Size    uint64
	Align   uint32
}

func (*Type) AttrType() AttrType { return AttrTypeRef }
func (*Type) attrValue()         {}

var unknownType = &Type{Name: "unknown", Kind: TypeUnknown}

// UnknownType is the shared placeholder type, accepted wherever a method
// type is expected.
func UnknownType() *Type { return unknownType }

// NewPrimitiveType returns a primitive type of mode m, sized by the mode.
func NewPrimitiveType(name string, m Mode) *Type {
	size := uint64(m.Bits()+7) / 8
	return &Type{Name: name, Kind: TypePrimitive, Mode: m, Size: size, Align: uint32(size)}
}

// NewPointerType returns a pointer to elem.
func NewPointerType(name string, elem *Type) *Type {
	return &Type{Name: name, Kind: TypePointer, Mode: ModeP, Elem: elem, Size: 8, Align: 8}
}

// NewMethodType returns a method type with the given signature.
func NewMethodType(name string, params, results []*Type) *Type {
	return &Type{Name: name, Kind: TypeMethod, Params: params, Results: results}
}

// NewArrayType returns an array of elem.
func NewArrayType(name string, elem *Type) *Type {
	return &Type{Name: name, Kind: TypeArray, Elem: elem, Align: elem.Align}
}

// NewStructType returns a compound type. Member owners are set to the new
// type.
func NewStructType(name string, members ...*Entity) *Type {
	t := &Type{Name: name, Kind: TypeStruct, Members: members}
	for _, m := range members {
		m.Owner = t
	}
	return t
}

// IsMethod reports whether t is a method type.
func (t *Type) IsMethod() bool { return t != nil && t.Kind == TypeMethod }

// IsUnknown reports whether t is the unknown type.
func (t *Type) IsUnknown() bool { return t != nil && t.Kind == TypeUnknown }

// ValueMode is the mode a value of type t is carried in. Compound and
// method types have no single value mode and report ModeP.
func (t *Type) ValueMode() Mode {
	switch t.Kind {
	case TypePrimitive, TypePointer:
		return t.Mode
	case TypeUnknown:
		return ModeANY
	}
	return ModeP
}

// Entity is a named program object: a variable, a method, a member.
type Entity struct {
	Name  string
	Type  *Type
	Owner *Type
}

func (*Entity) AttrType() AttrType { return AttrEntity }
func (*Entity) attrValue()         {}

// NewEntity returns an entity of type t.
func NewEntity(name string, t *Type) *Entity {
	return &Entity{Name: name, Type: t}
}
