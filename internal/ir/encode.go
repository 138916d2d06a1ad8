package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EncodeAttr converts v into plain values accepted by MarshalCanonical and
// by the YAML and JSON encoders. Types and entities are encoded by name.
func EncodeAttr(v AttrValue) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("cannot encode nil attribute")
	case *Entity:
		if val == nil {
			return nil, fmt.Errorf("cannot encode nil entity")
		}
		return val.Name, nil
	case *Type:
		if val == nil {
			return nil, fmt.Errorf("cannot encode nil type")
		}
		return val.Name, nil
	case Tarval:
		return encodeTarval(val), nil
	case Relation:
		return val.String(), nil
	case BuiltinKind:
		return val.String(), nil
	case Unsigned:
		return int64(val), nil
	case Volatility:
		return val.String(), nil
	case Align:
		return val.String(), nil
	case ModeValue:
		return val.Mode.String(), nil
	case Int:
		return int64(val), nil
	case Long:
		return int64(val), nil
	case Size:
		return int64(val), nil
	case JmpPred:
		return val.String(), nil
	case Constraints:
		out := make([]any, len(val))
		for i, c := range val {
			out[i] = map[string]any{
				"pos":        int64(c.Position),
				"constraint": c.Constraint,
				"mode":       c.Mode.String(),
			}
		}
		return out, nil
	case Ident:
		return string(val), nil
	case Idents:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, nil
	case *SwitchTable:
		if val == nil {
			return nil, fmt.Errorf("cannot encode nil switch table")
		}
		entries := make([]any, len(val.Entries))
		for i, e := range val.Entries {
			entries[i] = map[string]any{
				"min": e.Min.Int64(),
				"max": e.Max.Int64(),
				"pn":  int64(e.PN),
			}
		}
		out := map[string]any{"entries": entries}
		if len(val.Entries) > 0 {
			out["mode"] = val.Entries[0].Min.Mode.String()
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported attribute value %T", v)
}

func encodeTarval(t Tarval) map[string]any {
	if t.Mode.IsFloat() {
		return map[string]any{"mode": t.Mode.String(), "bits": int64(t.Bits)}
	}
	return map[string]any{"mode": t.Mode.String(), "value": t.Int64()}
}

// DecodeAttr converts a plain decoded value (from YAML, JSON or HCL) into
// an attribute value of semantic type t.
func DecodeAttr(t AttrType, raw any, syms *Symbols) (AttrValue, error) {
	switch t {
	case AttrEntity:
		name, err := asString(raw)
		if err != nil {
			return nil, err
		}
		if syms != nil {
			if e, ok := syms.Entity(name); ok {
				return e, nil
			}
		}
		return nil, fmt.Errorf("undefined entity %q", name)
	case AttrTypeRef:
		name, err := asString(raw)
		if err != nil {
			return nil, err
		}
		if syms == nil {
			syms = NewSymbols()
		}
		if ty, ok := syms.Type(name); ok {
			return ty, nil
		}
		return nil, fmt.Errorf("undefined type %q", name)
	case AttrTarval:
		return decodeTarval(raw)
	case AttrRelation:
		if n, err := asInt(raw); err == nil {
			r := Relation(n)
			if n < 0 || !r.Valid() {
				return nil, fmt.Errorf("relation %d out of range", n)
			}
			return r, nil
		}
		name, err := asString(raw)
		if err != nil {
			return nil, err
		}
		return ParseRelation(name)
	case AttrBuiltinKind:
		name, err := asString(raw)
		if err != nil {
			return nil, err
		}
		return ParseBuiltinKind(name)
	case AttrUnsigned:
		n, err := asInt(raw)
		if err != nil {
			return nil, err
		}
		if n < 0 || n > math.MaxUint32 {
			return nil, fmt.Errorf("unsigned value %d out of range", n)
		}
		return Unsigned(n), nil
	case AttrVolatility:
		name, err := asString(raw)
		if err != nil {
			return nil, err
		}
		switch name {
		case "non_volatile":
			return NonVolatile, nil
		case "is_volatile":
			return IsVolatile, nil
		}
		return nil, fmt.Errorf("unknown volatility %q", name)
	case AttrAlign:
		name, err := asString(raw)
		if err != nil {
			return nil, err
		}
		switch name {
		case "is_aligned":
			return IsAligned, nil
		case "non_aligned":
			return NonAligned, nil
		}
		return nil, fmt.Errorf("unknown alignment %q", name)
	case AttrMode:
		name, err := asString(raw)
		if err != nil {
			return nil, err
		}
		m, err := ParseMode(name)
		if err != nil {
			return nil, err
		}
		return ModeValue{Mode: m}, nil
	case AttrInt:
		n, err := asInt(raw)
		if err != nil {
			return nil, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("int value %d out of range", n)
		}
		return Int(n), nil
	case AttrLong:
		n, err := asInt(raw)
		if err != nil {
			return nil, err
		}
		return Long(n), nil
	case AttrSize:
		n, err := asInt(raw)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("size %d is negative", n)
		}
		return Size(n), nil
	case AttrJmpPred:
		name, err := asString(raw)
		if err != nil {
			return nil, err
		}
		switch name {
		case "none":
			return JmpPredNone, nil
		case "true":
			return JmpPredTrue, nil
		case "false":
			return JmpPredFalse, nil
		}
		return nil, fmt.Errorf("unknown jump prediction %q", name)
	case AttrAsmConstraints:
		return decodeConstraints(raw)
	case AttrIdent:
		s, err := asString(raw)
		if err != nil {
			return nil, err
		}
		return Ident(s), nil
	case AttrIdents:
		list, err := asList(raw)
		if err != nil {
			return nil, err
		}
		out := make(Idents, len(list))
		for i, elem := range list {
			s, err := asString(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = s
		}
		return out, nil
	case AttrSwitchTable:
		return decodeSwitchTable(raw)
	}
	return nil, fmt.Errorf("unsupported attribute type %s", t)
}

// decodeTarval accepts {mode, value}, {mode, bits} or the "Is:42" shorthand.
func decodeTarval(raw any) (Tarval, error) {
	if s, ok := raw.(string); ok {
		modeName, lit, found := strings.Cut(s, ":")
		if !found {
			return Tarval{}, fmt.Errorf("tarval %q: want mode:value", s)
		}
		m, err := ParseMode(modeName)
		if err != nil {
			return Tarval{}, err
		}
		if m == ModeB {
			switch lit {
			case "true":
				return NewTarvalBool(true), nil
			case "false":
				return NewTarvalBool(false), nil
			}
		}
		if m.IsFloat() {
			f, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return Tarval{}, fmt.Errorf("tarval %q: %w", s, err)
			}
			return NewTarvalFloat(m, f)
		}
		if !m.Signed() && !strings.HasPrefix(lit, "-") {
			u, err := strconv.ParseUint(lit, 0, 64)
			if err != nil {
				return Tarval{}, fmt.Errorf("tarval %q: %w", s, err)
			}
			return NewTarvalUint(m, u)
		}
		n, err := strconv.ParseInt(lit, 0, 64)
		if err != nil {
			return Tarval{}, fmt.Errorf("tarval %q: %w", s, err)
		}
		return NewTarvalInt(m, n)
	}
	obj, err := asMap(raw)
	if err != nil {
		return Tarval{}, err
	}
	modeName, err := asString(obj["mode"])
	if err != nil {
		return Tarval{}, fmt.Errorf("tarval mode: %w", err)
	}
	m, err := ParseMode(modeName)
	if err != nil {
		return Tarval{}, err
	}
	if bits, ok := obj["bits"]; ok {
		n, err := asInt(bits)
		if err != nil {
			return Tarval{}, fmt.Errorf("tarval bits: %w", err)
		}
		return Tarval{Mode: m, Bits: truncate(uint64(n), m.Bits())}, nil
	}
	if m.IsFloat() {
		f, ok := obj["value"].(float64)
		if !ok {
			n, err := asInt(obj["value"])
			if err != nil {
				return Tarval{}, fmt.Errorf("tarval value: %w", err)
			}
			f = float64(n)
		}
		return NewTarvalFloat(m, f)
	}
	n, err := asInt(obj["value"])
	if err != nil {
		return Tarval{}, fmt.Errorf("tarval value: %w", err)
	}
	return NewTarvalInt(m, n)
}

func decodeConstraints(raw any) (Constraints, error) {
	list, err := asList(raw)
	if err != nil {
		return nil, err
	}
	out := make(Constraints, len(list))
	for i, elem := range list {
		obj, err := asMap(elem)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		pos, err := asInt(obj["pos"])
		if err != nil {
			return nil, fmt.Errorf("[%d].pos: %w", i, err)
		}
		text, err := asString(obj["constraint"])
		if err != nil {
			return nil, fmt.Errorf("[%d].constraint: %w", i, err)
		}
		modeName, err := asString(obj["mode"])
		if err != nil {
			return nil, fmt.Errorf("[%d].mode: %w", i, err)
		}
		m, err := ParseMode(modeName)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = AsmConstraint{Position: uint32(pos), Constraint: text, Mode: m}
	}
	return out, nil
}

func decodeSwitchTable(raw any) (*SwitchTable, error) {
	obj, err := asMap(raw)
	if err != nil {
		return nil, err
	}
	m := ModeIu
	if name, ok := obj["mode"]; ok {
		s, err := asString(name)
		if err != nil {
			return nil, fmt.Errorf("mode: %w", err)
		}
		if m, err = ParseMode(s); err != nil {
			return nil, err
		}
	}
	var list []any
	if e, ok := obj["entries"]; ok {
		if list, err = asList(e); err != nil {
			return nil, fmt.Errorf("entries: %w", err)
		}
	}
	table := &SwitchTable{Entries: make([]SwitchEntry, len(list))}
	for i, elem := range list {
		eo, err := asMap(elem)
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		lo, err := asInt(eo["min"])
		if err != nil {
			return nil, fmt.Errorf("entries[%d].min: %w", i, err)
		}
		hi, err := asInt(eo["max"])
		if err != nil {
			return nil, fmt.Errorf("entries[%d].max: %w", i, err)
		}
		pn, err := asInt(eo["pn"])
		if err != nil {
			return nil, fmt.Errorf("entries[%d].pn: %w", i, err)
		}
		minTv, err := NewTarvalInt(m, lo)
		if err != nil {
			return nil, err
		}
		maxTv, err := NewTarvalInt(m, hi)
		if err != nil {
			return nil, err
		}
		table.Entries[i] = SwitchEntry{Min: minTv, Max: maxTv, PN: uint32(pn)}
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func asString(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("want string, got %T", raw)
	}
	return s, nil
}

func asInt(raw any) (int64, error) {
	switch n := raw.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("integer %d overflows int64", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("want integer, got %v", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("want integer, got %T", raw)
}

func asList(raw any) ([]any, error) {
	switch l := raw.(type) {
	case []any:
		return l, nil
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("want list, got %T", raw)
}

func asMap(raw any) (map[string]any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("want object, got %T", raw)
	}
	return m, nil
}
