// Package harness runs construction scenarios against a fresh graph and
// checks their outcome step by step.
//
// # Scenario Format
//
// A scenario is a YAML or HCL file:
//
//	name: loop_header
//	description: "What this scenario builds"
//	graph:
//	  params: [Is]       # or entity: f, naming a declared method entity
//	  results: [Is]
//	types:
//	  - {name: int, kind: primitive, mode: Is}
//	entities:
//	  - {name: f, type: fn}
//	steps:
//	  - op: init
//	  - op: create
//	    as: c
//	    kind: Const
//	    attrs: {tarval: "Is:42"}
//	    expect: {mode: Is, block: start_block}
//
// In HCL each step is a block labelled with its operation:
//
//	step "create" {
//	  as    = "c"
//	  kind  = "Const"
//	  attrs = { tarval = "Is:42" }
//	  expect { mode = "Is" }
//	}
//
// # Operations
//
//   - init: create the singletons (Start, End, NoMem, Bad, Unknown)
//   - create: construct a node of a catalog kind
//   - project, placeholder: create a Proj or a Dummy
//   - add_pred, mature: grow and freeze a block's predecessors
//   - set_input, append_input, set_attr, set_throws, set_backedge: edit a node
//   - verify: run whole-graph verification; expect.findings lists the codes
//
// Steps refer to nodes by the names earlier steps bound with "as", or by
// anchor role (start_block, end_block, start, end, no_mem, bad, unknown).
// Without expect.error a step must succeed. A failed step binds nothing
// and the scenario continues.
//
// # Traces
//
// Every step appends one TraceEvent whose text names nodes by binding, not
// by id, so golden traces under testdata/golden survive renumbering. Run
// with -update to regenerate them.
package harness
