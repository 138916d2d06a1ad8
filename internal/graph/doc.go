// Package graph is the construction kernel: it creates nodes inside a
// function graph, validating every request against the kind catalog.
//
// A Graph owns its nodes (allocated from a chunked arena and released
// wholesale by Free), its anchor table of singleton nodes, and the
// bookkeeping for cyclic construction: immature blocks whose predecessor
// lists still grow, placeholder inputs, and their later resolution.
//
// Each graph is single-writer. Different graphs share only the read-only
// registry and can be built in parallel.
package graph
