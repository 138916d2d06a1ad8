package ir

import "fmt"

// Relation is a comparison relation encoded as a bit set over the four
// primitive outcomes.
type Relation uint8

const (
	RelationFalse              Relation = 0
	RelationEqual              Relation = 1 << 0
	RelationLess               Relation = 1 << 1
	RelationGreater            Relation = 1 << 2
	RelationUnordered          Relation = 1 << 3
	RelationLessEqual                   = RelationEqual | RelationLess
	RelationGreaterEqual                = RelationEqual | RelationGreater
	RelationLessGreater                 = RelationLess | RelationGreater
	RelationLessEqualGreater            = RelationEqual | RelationLess | RelationGreater
	RelationUnorderedEqual              = RelationUnordered | RelationEqual
	RelationUnorderedLess               = RelationUnordered | RelationLess
	RelationUnorderedLessEqual          = RelationUnordered | RelationLessEqual
	RelationUnorderedGreater            = RelationUnordered | RelationGreater
	RelationUnorderedGreaterEqual       = RelationUnordered | RelationGreaterEqual
	RelationUnorderedLessGreater        = RelationUnordered | RelationLessGreater
	RelationTrue                        = RelationUnordered | RelationLessEqualGreater
)

var relationNames = [...]string{
	RelationFalse:                 "false",
	RelationEqual:                 "equal",
	RelationLess:                  "less",
	RelationLessEqual:             "less_equal",
	RelationGreater:               "greater",
	RelationGreaterEqual:          "greater_equal",
	RelationLessGreater:           "less_greater",
	RelationLessEqualGreater:      "less_equal_greater",
	RelationUnordered:             "unordered",
	RelationUnorderedEqual:        "unordered_equal",
	RelationUnorderedLess:         "unordered_less",
	RelationUnorderedLessEqual:    "unordered_less_equal",
	RelationUnorderedGreater:      "unordered_greater",
	RelationUnorderedGreaterEqual: "unordered_greater_equal",
	RelationUnorderedLessGreater:  "unordered_less_greater",
	RelationTrue:                  "true",
}

func (Relation) AttrType() AttrType { return AttrRelation }
func (Relation) attrValue()         {}

func (r Relation) String() string {
	if int(r) < len(relationNames) {
		return relationNames[r]
	}
	return fmt.Sprintf("Relation(%d)", uint8(r))
}

// Valid reports whether r uses only the four outcome bits.
func (r Relation) Valid() bool { return r <= RelationTrue }

// Negated returns the relation that holds exactly when r does not.
func (r Relation) Negated() Relation { return r ^ RelationTrue }

// Inversed returns the relation with operands swapped (less becomes
// greater).
func (r Relation) Inversed() Relation {
	out := r &^ (RelationLess | RelationGreater)
	if r&RelationLess != 0 {
		out |= RelationGreater
	}
	if r&RelationGreater != 0 {
		out |= RelationLess
	}
	return out
}

// ParseRelation resolves a relation name such as "less_equal".
func ParseRelation(name string) (Relation, error) {
	for r, n := range relationNames {
		if n == name {
			return Relation(r), nil
		}
	}
	return RelationFalse, fmt.Errorf("unknown relation %q", name)
}
