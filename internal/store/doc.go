// Package store provides SQLite-backed durable storage for construction
// journals.
//
// A journal holds one session per recorded graph:
//   - Sessions: graph name, entity, symbol declarations, catalog hash and
//     the final fingerprint
//   - Ops: every kernel call in call order with its arguments, the node id
//     it returned and its error code
//   - Nodes: the canonical encoding of every node when the session finished
//
// A [Recorder] wraps a graph and journals each call; [Replay] re-executes a
// session on a fresh graph and reports any call whose outcome differs.
// Node ids are assigned in creation order, so identical call sequences
// must reproduce the journal exactly.
//
// # Ordering
//
// Ops are ordered by seq and nodes by id. Sessions are ordered by id,
// which is a UUIDv7 and therefore sorts by creation time. Nothing is
// ordered by wall clock.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Ops and nodes are deleted with their session
package store
