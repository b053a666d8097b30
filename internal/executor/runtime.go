package executor

import (
	"context"
)

// Runtime is the host integration surface the executor dispatches to.
//
// Contract:
//   - The executor drains all synchronous fields at a depth via ResolveSync,
//     then calls BatchResolveAsync once with every async task collected at
//     that depth. ResolveSync is never invoked for fields marked async.
//   - Errors returned from any method become located GraphQL errors. If the
//     field's type is Non-Null the executor propagates the null upward.
//   - Implementations must be safe for concurrent use across operations and
//     must not mutate source or args values. Per-request state travels in ctx.
//   - BatchResolveAsync must return one result per task, in task order, with
//     independent per-element errors (partial success).
//   - The executor never retries; a single logical attempt per task.
type Runtime interface {
	// ResolveSync resolves a synchronous field immediately from the parent
	// source, without I/O. Return (nil, nil) to produce a GraphQL null.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync resolves one execution depth of async field tasks.
	// results[i] corresponds to tasks[i].
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// ResolveType returns the concrete object type name for a value of an
	// abstract (interface or union) type.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue serializes a scalar or enum value to a JSON-safe Go
	// value. For enums, return the symbolic name as string.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// AsyncResolveTask is one deferred field resolution.
type AsyncResolveTask struct {
	// ObjectType is the parent GraphQL object type name for the field.
	ObjectType string
	// Field is the GraphQL field name to resolve.
	Field string
	// Source is the parent object value (nil for root fields).
	Source any
	// Args are the field arguments, coerced to Go values per the schema.
	Args map[string]any
}

// AsyncResolveResult carries the outcome of one task. Error affects only the
// element it belongs to; other elements in the same batch are independent.
type AsyncResolveResult struct {
	Value any
	Error error
}
