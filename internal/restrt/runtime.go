package restrt

import (
	"context"
	"fmt"
	"math"
	"sync"

	executor "github.com/dunatron/odyssey-lift-off-part2/internal/executor"
	model "github.com/dunatron/odyssey-lift-off-part2/internal/model"
)

// Runtime implements executor.Runtime over the catalog data source.
// Invariants and boundaries:
//   - Registry trust: Check ran at startup, so every async field reaching
//     BatchResolveAsync has a binding. A missing binding is a programming
//     error and causes panic.
//   - Source shape: for object fields, source must be a *model.Record.
//     Violations cause panic rather than being hidden behind recoverable errors.
//   - Relation short-circuit: an empty or absent key field on the parent
//     record yields (nil, nil) without touching the data source.
//   - Concurrency: BatchResolveAsync groups tasks by (objectType, field) and
//     executes groups in parallel. The per-request fetch cache owns its locking.
//   - Determinism: results preserve input ordering; partial success is supported.
type Runtime struct {
	reg *Registry
}

var _ executor.Runtime = (*Runtime)(nil)

func NewRuntime(registry *Registry) *Runtime {
	return &Runtime{reg: registry}
}

// ResolveSync resolves only record properties from the parent source. It
// NEVER performs network I/O; all bound fields (I/O) are handled in
// BatchResolveAsync. A property the record does not carry resolves to nil,
// producing a GraphQL null for nullable fields.
func (r *Runtime) ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	_ = ctx
	_ = args

	rec, ok := source.(*model.Record)
	if !ok {
		panic(fmt.Sprintf("ResolveSync: source for %s.%s must be *model.Record, got %T", objectType, field, source))
	}
	return rec.Get(field), nil
}

// BatchResolveAsync executes the bound resolvers. All I/O happens here. The
// executor guarantees only async fields reach this method, one batch per depth.
//
// Tasks are grouped by (objectType, field); groups run in parallel goroutines
// and write into pre-determined slots to preserve input ordering per task.
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	type groupKey struct {
		objectType string
		field      string
	}
	type group struct {
		objectType string
		field      string
		idxs       []int
	}
	groups := []group{}
	idxByKey := map[groupKey]int{}
	for i, t := range tasks {
		k := groupKey{objectType: t.ObjectType, field: t.Field}
		if gi, ok := idxByKey[k]; ok {
			groups[gi].idxs = append(groups[gi].idxs, i)
		} else {
			idxByKey[k] = len(groups)
			groups = append(groups, group{objectType: t.ObjectType, field: t.Field, idxs: []int{i}})
		}
	}

	sources := SourcesFromContext(ctx)

	run := func(g group) {
		if fn, ok := r.reg.rootResolver(g.objectType, g.field); ok {
			r.runRootGroup(ctx, sources, fn, tasks, g.idxs, results)
			return
		}
		if rel, ok := r.reg.relation(g.objectType, g.field); ok {
			r.runRelationGroup(ctx, sources, rel, tasks, g.idxs, results)
			return
		}
		panic(fmt.Sprintf("BatchResolveAsync: no binding registered for %s.%s", g.objectType, g.field))
	}

	if len(groups) > 1 {
		var wg sync.WaitGroup
		wg.Add(len(groups))
		for _, g := range groups {
			g := g // capture
			go func() {
				defer wg.Done()
				run(g)
			}()
		}
		wg.Wait()
	} else {
		for _, g := range groups {
			run(g)
		}
	}
	return results
}

// runRootGroup executes a root resolver for each task in the group.
func (r *Runtime) runRootGroup(ctx context.Context, s *Sources, fn RootResolver, tasks []executor.AsyncResolveTask, idxs []int, results []executor.AsyncResolveResult) {
	for _, i := range idxs {
		if s == nil {
			results[i] = executor.AsyncResolveResult{Error: fmt.Errorf("restrt: request context carries no data sources")}
			continue
		}
		value, err := fn(ctx, s, tasks[i].Args)
		results[i] = executor.AsyncResolveResult{Value: value, Error: err}
	}
}

// runRelationGroup synthesizes related objects for each task in the group,
// short-circuiting tasks whose parent record carries no key.
func (r *Runtime) runRelationGroup(ctx context.Context, s *Sources, rel Relation, tasks []executor.AsyncResolveTask, idxs []int, results []executor.AsyncResolveResult) {
	for _, i := range idxs {
		rec, ok := tasks[i].Source.(*model.Record)
		if !ok {
			panic(fmt.Sprintf("BatchResolveAsync: source for %s.%s must be *model.Record, got %T",
				tasks[i].ObjectType, tasks[i].Field, tasks[i].Source))
		}
		key := keyAsString(rec.Get(rel.KeyField))
		if key == "" {
			results[i] = executor.AsyncResolveResult{Value: nil}
			continue
		}
		if s == nil {
			results[i] = executor.AsyncResolveResult{Error: fmt.Errorf("restrt: request context carries no data sources")}
			continue
		}
		value, err := rel.Fetch(ctx, s, key)
		results[i] = executor.AsyncResolveResult{Value: value, Error: err}
	}
}

// ResolveType resolves the concrete type of an abstract GraphQL type from the
// record's entity tag.
func (r *Runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	rec, ok := value.(*model.Record)
	if !ok || rec == nil {
		return "", fmt.Errorf("ResolveType expects *model.Record, got %T", value)
	}
	if rec.Entity == "" {
		return "", fmt.Errorf("cannot infer concrete type for %s: record has no entity tag", abstractType)
	}
	return rec.Entity, nil
}

// SerializeLeafValue serializes a scalar or enum value for the response.
// JSON decoding yields float64 for every number, so whole floats behind Int
// fields come back out as integers.
func (r *Runtime) SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case float64:
		if scalarOrEnumTypeName == "Int" && v == math.Trunc(v) {
			return int64(v), nil
		}
		return v, nil
	case string, bool, int, int32, int64, float32:
		return v, nil
	default:
		return v, nil
	}
}

// keyAsString normalizes a record's key property. JSON records carry string
// ids, but numbers are tolerated.
func keyAsString(v any) string {
	switch k := v.(type) {
	case nil:
		return ""
	case string:
		return k
	case float64:
		if k == math.Trunc(k) {
			return fmt.Sprintf("%d", int64(k))
		}
		return fmt.Sprintf("%v", k)
	default:
		return fmt.Sprintf("%v", k)
	}
}
