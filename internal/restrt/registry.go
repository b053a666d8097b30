package restrt

import (
	"context"
	"fmt"

	model "github.com/dunatron/odyssey-lift-off-part2/internal/model"
	schema "github.com/dunatron/odyssey-lift-off-part2/internal/schema"
)

// RootResolver fetches the value behind a root field from the request's data
// sources. Root fields have no parent record.
type RootResolver func(ctx context.Context, s *Sources, args map[string]any) (any, error)

// Relation synthesizes a linked object (or list) that the backing record only
// references by key. KeyField names the parent record property holding the
// lookup key; an empty or absent key yields nil with zero fetches.
type Relation struct {
	KeyField string
	Fetch    func(ctx context.Context, s *Sources, key string) (any, error)
}

// Registry maps (objectType, field) to resolution strategies. Fields with no
// binding resolve by the identity default: reading the identically named
// property off the parent's backing record.
type Registry struct {
	models    *model.Registry
	roots     map[string]RootResolver
	relations map[string]Relation
	rootType  string
}

func NewRegistry(models *model.Registry) *Registry {
	return &Registry{
		models:    models,
		roots:     make(map[string]RootResolver),
		relations: make(map[string]Relation),
	}
}

func bindingKey(objectType, field string) string { return objectType + "." + field }

// BindRoot registers the resolver for a root field.
func (r *Registry) BindRoot(objectType, field string, fn RootResolver) *Registry {
	r.roots[bindingKey(objectType, field)] = fn
	return r
}

// BindRelation registers a relation synthesis for an object field.
func (r *Registry) BindRelation(objectType, field string, rel Relation) *Registry {
	r.relations[bindingKey(objectType, field)] = rel
	return r
}

func (r *Registry) rootResolver(objectType, field string) (RootResolver, bool) {
	fn, ok := r.roots[bindingKey(objectType, field)]
	return fn, ok
}

func (r *Registry) relation(objectType, field string) (Relation, bool) {
	rel, ok := r.relations[bindingKey(objectType, field)]
	return rel, ok
}

// Check validates the bindings against the schema and marks every bound field
// async so the executor routes it through BatchResolveAsync. A schema field
// that is neither bound nor declared on its backing record is a wiring defect
// and fails startup.
func (r *Registry) Check(sch *schema.Schema) error {
	queryType := sch.GetQueryType()
	if queryType == nil {
		return fmt.Errorf("restrt: schema has no query type")
	}
	r.rootType = queryType.Name

	for _, f := range queryType.Fields {
		fn, ok := r.rootResolver(queryType.Name, f.Name)
		if !ok || fn == nil {
			return fmt.Errorf("restrt: root field %s.%s has no resolver", queryType.Name, f.Name)
		}
		f.SetAsync(true)
	}

	for _, t := range sch.Types {
		if t.Kind != schema.TypeKindObject || isIntrospectionName(t.Name) {
			continue
		}
		if t.Name == sch.QueryType || t.Name == sch.MutationType || t.Name == sch.SubscriptionType {
			continue
		}
		entity := r.models.Entity(t.Name)
		if entity == nil {
			return fmt.Errorf("restrt: object type %s has no registered entity", t.Name)
		}
		for _, f := range t.Fields {
			rel, bound := r.relation(t.Name, f.Name)
			if bound {
				if rel.Fetch == nil {
					return fmt.Errorf("restrt: relation %s.%s has no fetch function", t.Name, f.Name)
				}
				if rel.KeyField == "" || !entity.HasField(rel.KeyField) {
					return fmt.Errorf("restrt: relation %s.%s reads key %q which %s records do not carry",
						t.Name, f.Name, rel.KeyField, t.Name)
				}
				f.SetAsync(true)
				continue
			}
			if !entity.HasField(f.Name) {
				return fmt.Errorf("restrt: field %s.%s is neither bound nor present on the backing record",
					t.Name, f.Name)
			}
		}
	}
	return nil
}

func isIntrospectionName(name string) bool {
	return len(name) >= 2 && name[0] == '_' && name[1] == '_'
}
