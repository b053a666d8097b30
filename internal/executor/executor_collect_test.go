package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	schema "github.com/dunatron/odyssey-lift-off-part2/internal/schema"
)

func helloSchema() *schema.Schema {
	return newSchemaWithQueryType(
		newObjectType("Query",
			schema.NewField("hello", "", schema.NamedType("String")),
			schema.NewField("world", "", schema.NamedType("String")),
		),
	)
}

func TestCollect_Aliases(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.hello": NewMockValueResolver("hi"),
	})
	exec := NewExecutor(rt, helloSchema())
	doc := mustParseQuery(t, "{ first: hello second: hello }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	wantRes := &ExecutionResult{
		Data: map[string]any{"first": "hi", "second": "hi"},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_SkipInclude(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.hello": NewMockValueResolver("hi"),
		"Query.world": NewMockValueResolver("earth"),
	})
	exec := NewExecutor(rt, helloSchema())
	doc := mustParseQuery(t, `query ($yes: Boolean!, $no: Boolean!) {
		hello @skip(if: $no)
		world @include(if: $no)
		kept: world @include(if: $yes)
	}`)

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", map[string]any{"yes": true, "no": false}, nil)

	wantRes := &ExecutionResult{
		Data: map[string]any{"hello": "hi", "kept": "earth"},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_FragmentSpread(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query", schema.NewField("track", "", schema.NamedType("Track"))),
		newObjectType("Track",
			schema.NewField("id", "", schema.NamedType("ID")),
			schema.NewField("title", "", schema.NamedType("String")),
		),
	)
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.track": NewMockValueResolver(map[string]any{"id": "t1", "title": "T"}),
		"Track.id":    fieldFromMap("id"),
		"Track.title": fieldFromMap("title"),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, `
		{ track { ...trackBits } }
		fragment trackBits on Track { id title }
	`)

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	wantRes := &ExecutionResult{
		Data: map[string]any{"track": map[string]any{"id": "t1", "title": "T"}},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_Typename(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.hello": NewMockValueResolver("hi"),
	})
	exec := NewExecutor(rt, helloSchema())
	doc := mustParseQuery(t, "{ __typename hello }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	wantRes := &ExecutionResult{
		Data: map[string]any{"__typename": "Query", "hello": "hi"},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}
