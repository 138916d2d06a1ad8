// Package registry holds the node-kind catalog: one immutable Kind record
// per ir.Op describing inputs, outputs, attributes, flags, pinning policy,
// value-representation rule and singleton-ness.
//
// Shared shapes (binary operators, entity and type constants, tuple kinds)
// are plain constructor functions whose result each catalog row adjusts;
// nothing is inherited at runtime. The catalog is validated when it is
// built and never changes afterwards.
package registry
