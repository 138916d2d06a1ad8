package store

import (
	"fmt"

	"github.com/roach88/irgraph/internal/ir"
)

// NoNode stands for an absent node reference.
const NoNode = -1

// Journal operations, one per kernel call.
const (
	OpInit         = "init"
	OpCreate       = "create"
	OpProject      = "project"
	OpProjectNamed = "project_named"
	OpPlaceholder  = "placeholder"
	OpAddPred      = "add_pred"
	OpMature       = "mature"
	OpSetInput     = "set_input"
	OpAppendInput  = "append_input"
	OpSetAttr      = "set_attr"
	OpSetThrows    = "set_throws"
	OpSetBackedge  = "set_backedge"
)

// Session is one recorded graph.
type Session struct {
	ID       string
	Name     string
	Graph    string
	Entity   string
	Types    []ir.TypeDecl
	Entities []ir.EntityDecl

	// SchemaHash identifies the kind catalog the session was recorded
	// against. Replaying under a different catalog may legitimately diverge.
	SchemaHash  string
	ToolVersion string

	Fingerprint string
	NodeCount   int
}

// Op is one journaled kernel call and its outcome. Node references are
// ids in the recorded graph.
type Op struct {
	Seq  int64
	Type string
	Kind string

	// Node is the call's target (block, tuple, edited node), Value the node
	// it installs.
	Node  int
	Value int
	Block int

	Inputs []int
	Attrs  map[string]any // encoded with ir.EncodeAttr
	Flags  []string
	Mode   string
	Index  int
	Name   string // output name of project_named
	Throws bool

	// Result is the node the call returned, or NoNode.
	Result int
	Error  string
}

func newOp(typ string) Op {
	return Op{
		Type:   typ,
		Node:   NoNode,
		Value:  NoNode,
		Block:  NoNode,
		Index:  -1,
		Result: NoNode,
	}
}

func (o Op) String() string {
	s := fmt.Sprintf("#%d %s", o.Seq, o.Type)
	if o.Kind != "" {
		s += " " + o.Kind
	}
	if o.Error != "" {
		s += " error=" + o.Error
	}
	return s
}

// NodeRecord is a node of the snapshot written when a session finishes.
type NodeRecord struct {
	ID       int
	Kind     string
	Block    int
	Mode     string
	Pin      string
	Inputs   []int
	Encoding string // canonical JSON
}
