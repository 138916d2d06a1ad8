// Package testutil holds deterministic stand-ins for the nondeterministic
// parts of the tool, so journals written in tests compare byte for byte.
package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs hands out session ids "<prefix>-0001", "<prefix>-0002", ...
// They sort in creation order like the UUIDv7 ids they replace.
//
// Safe for concurrent use.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs returns a generator whose first id ends in 0001. An
// empty prefix becomes "session".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "session"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Count returns how many ids were handed out.
func (g *SequentialIDs) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// Reset starts the sequence over.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

// FixedID returns the same id every time. Writing a second session with it
// fails on the primary key, which is what some tests want.
type FixedID string

// Generate returns the id.
func (id FixedID) Generate() string { return string(id) }
