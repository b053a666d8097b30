// Package executor implements a breadth-first GraphQL executor with explicit
// runtime hooks for synchronous field resolution, depth-wise batching of
// asynchronous (I/O-bound) fields, abstract-type resolution, and leaf
// serialization.
//
// Synchronous fields are expanded immediately from the parent value.
// Asynchronous fields discovered while expanding one depth are collected and
// handed to Runtime.BatchResolveAsync in a single call; the next depth starts
// only after those results are completed. Errors are located (path-carrying)
// and never abort sibling fields; Non-Null violations propagate nulls to the
// nearest nullable ancestor per the GraphQL specification.
package executor
