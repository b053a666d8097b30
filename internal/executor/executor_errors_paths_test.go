package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	schema "github.com/dunatron/odyssey-lift-off-part2/internal/schema"
)

// Pattern: full-result comparison
func TestErrors_LocatedPaths_Result(t *testing.T) {
	t.Run("Simple", func(t *testing.T) {
		sch := newSchemaWithQueryType(
			newObjectType("Query", schema.NewField("a", "", schema.NamedType("String"))),
		)
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.a": NewMockErrorResolver(fmt.Errorf("boom")),
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "{ a }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &ExecutionResult{
			Data:   map[string]any{"a": nil},
			Errors: []GraphQLError{{Message: "boom", Path: Path{"a"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Nested", func(t *testing.T) {
		sch := newSchemaWithQueryType(
			newObjectType("Query", schema.NewField("obj", "", schema.NamedType("Obj"))),
			newObjectType("Obj", schema.NewField("a", "", schema.NamedType("String"))),
		)
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.obj": NewMockValueResolver(map[string]any{}),
			"Obj.a":     NewMockErrorResolver(fmt.Errorf("boom")),
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "{ obj { a } }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &ExecutionResult{
			Data:   map[string]any{"obj": map[string]any{"a": nil}},
			Errors: []GraphQLError{{Message: "boom", Path: Path{"obj", "a"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("List index in path", func(t *testing.T) {
		sch := newSchemaWithQueryType(
			newObjectType("Query", schema.NewField("objs", "", schema.ListType(schema.NamedType("Obj")))),
			newObjectType("Obj", schema.NewField("a", "", schema.NamedType("String"))),
		)
		rt := NewMockRuntime(map[string]MockResolver{
			"Query.objs": NewMockValueResolver([]any{map[string]any{"idx": 0}, map[string]any{"idx": 1}}),
			"Obj.a": func(ctx context.Context, src any, args map[string]any) (any, error) {
				if src.(map[string]any)["idx"].(int) == 1 {
					return nil, fmt.Errorf("boom")
				}
				return "A", nil
			},
		})
		exec := NewExecutor(rt, sch)
		doc := mustParseQuery(t, "{ objs { a } }")

		gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

		wantRes := &ExecutionResult{
			Data:   map[string]any{"objs": []any{map[string]any{"a": "A"}, map[string]any{"a": nil}}},
			Errors: []GraphQLError{{Message: "boom", Path: Path{"objs", 1, "a"}}},
		}
		if diff := cmp.Diff(wantRes, gotRes); diff != "" {
			t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestErrors_NonNullPropagation(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query", schema.NewField("obj", "", schema.NamedType("Obj"))),
		newObjectType("Obj", schema.NewField("a", "", schema.NonNullType(schema.NamedType("String")))),
	)
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.obj": NewMockValueResolver(map[string]any{}),
		"Obj.a":     NewMockValueResolver(nil),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ obj { a } }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	wantRes := &ExecutionResult{
		Data: map[string]any{"obj": nil},
		Errors: []GraphQLError{{
			Message: "Cannot return null for non-nullable field obj.a",
			Path:    Path{"obj", "a"},
		}},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestErrors_SiblingsUnaffected(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query",
			schema.NewField("good", "", schema.NamedType("String")),
			schema.NewField("bad", "", schema.NamedType("String")),
		),
	)
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.good": NewMockValueResolver("ok"),
		"Query.bad":  NewMockErrorResolver(fmt.Errorf("boom")),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ good bad }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	wantRes := &ExecutionResult{
		Data:   map[string]any{"good": "ok", "bad": nil},
		Errors: []GraphQLError{{Message: "boom", Path: Path{"bad"}}},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}
