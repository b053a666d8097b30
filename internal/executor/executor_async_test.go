package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	schema "github.com/dunatron/odyssey-lift-off-part2/internal/schema"
)

func fieldFromMap(name string) MockResolver {
	return func(ctx context.Context, src any, args map[string]any) (any, error) {
		m, ok := src.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("source is %T, want map", src)
		}
		return m[name], nil
	}
}

func asyncCatalogSchema() *schema.Schema {
	return newSchemaWithQueryType(
		newObjectType("Query",
			schema.NewField("tracks", "", schema.ListType(schema.NamedType("Track"))).SetAsync(true),
		),
		newObjectType("Track",
			schema.NewField("id", "", schema.NamedType("ID")),
			schema.NewField("author", "", schema.NamedType("Author")).SetAsync(true),
		),
		newObjectType("Author",
			schema.NewField("name", "", schema.NamedType("String")),
		),
	)
}

func TestAsync_DepthWiseBatching(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.tracks": NewMockValueResolver([]any{
			map[string]any{"id": "t1", "authorId": "a1"},
			map[string]any{"id": "t2", "authorId": "a2"},
		}),
		"Track.id": fieldFromMap("id"),
		"Track.author": func(ctx context.Context, src any, args map[string]any) (any, error) {
			id := src.(map[string]any)["authorId"].(string)
			return map[string]any{"name": "author of " + id}, nil
		},
		"Author.name": fieldFromMap("name"),
	})
	exec := NewExecutor(rt, asyncCatalogSchema())
	doc := mustParseQuery(t, "{ tracks { id author { name } } }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	wantRes := &ExecutionResult{
		Data: map[string]any{"tracks": []any{
			map[string]any{"id": "t1", "author": map[string]any{"name": "author of a1"}},
			map[string]any{"id": "t2", "author": map[string]any{"name": "author of a2"}},
		}},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	// tracks flushes alone at depth 1; both author tasks share the depth-2 batch
	rootCalls := rt.CallsFor("Query.tracks")
	if len(rootCalls) != 1 || rootCalls[0].Kind != CallKindAsync {
		t.Fatalf("unexpected root calls: %+v", rootCalls)
	}
	authorCalls := rt.CallsFor("Track.author")
	if len(authorCalls) != 2 {
		t.Fatalf("want 2 author calls, got %d", len(authorCalls))
	}
	if authorCalls[0].BatchID != authorCalls[1].BatchID {
		t.Fatalf("author tasks split across batches: %d vs %d", authorCalls[0].BatchID, authorCalls[1].BatchID)
	}
	if authorCalls[0].BatchID == rootCalls[0].BatchID {
		t.Fatalf("author tasks flushed with the root batch")
	}
	for _, c := range rt.CallsFor("Track.id") {
		if c.Kind != CallKindSync {
			t.Fatalf("Track.id resolved async: %+v", c)
		}
	}
}

func TestAsync_PartialSuccess(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.tracks": NewMockValueResolver([]any{
			map[string]any{"id": "t1", "authorId": "a1"},
			map[string]any{"id": "t2", "authorId": "a2"},
		}),
		"Track.id": fieldFromMap("id"),
		"Track.author": func(ctx context.Context, src any, args map[string]any) (any, error) {
			if src.(map[string]any)["authorId"] == "a2" {
				return nil, fmt.Errorf("upstream gone")
			}
			return map[string]any{"name": "ok"}, nil
		},
		"Author.name": fieldFromMap("name"),
	})
	exec := NewExecutor(rt, asyncCatalogSchema())
	doc := mustParseQuery(t, "{ tracks { id author { name } } }")

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	wantRes := &ExecutionResult{
		Data: map[string]any{"tracks": []any{
			map[string]any{"id": "t1", "author": map[string]any{"name": "ok"}},
			map[string]any{"id": "t2", "author": nil},
		}},
		Errors: []GraphQLError{{Message: "upstream gone", Path: Path{"tracks", 1, "author"}}},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestAsync_NeverRoutedThroughResolveSync(t *testing.T) {
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.tracks": NewMockValueResolver([]any{}),
	})
	exec := NewExecutor(rt, asyncCatalogSchema())
	doc := mustParseQuery(t, "{ tracks { id } }")

	exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	for _, c := range rt.GetCalls() {
		if c.ObjectType == "Query" && c.Field == "tracks" && c.Kind != CallKindAsync {
			t.Fatalf("async field resolved via ResolveSync: %+v", c)
		}
	}
}
