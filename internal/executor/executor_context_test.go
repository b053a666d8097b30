package executor

import (
	"context"
	"testing"

	schema "github.com/dunatron/odyssey-lift-off-part2/internal/schema"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

// The executor must hand the caller's context unchanged to both sync and
// async resolution paths; per-request state (data sources) travels there.
func TestContextPropagation(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query",
			schema.NewField("sync", "", schema.NamedType("String")),
			schema.NewField("async", "", schema.NamedType("String")).SetAsync(true),
		),
	)

	var syncSeen, asyncSeen any
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.sync": func(ctx context.Context, src any, args map[string]any) (any, error) {
			syncSeen = ctx.Value(ctxKey{})
			return "s", nil
		},
		"Query.async": func(ctx context.Context, src any, args map[string]any) (any, error) {
			asyncSeen = ctx.Value(ctxKey{})
			return "a", nil
		},
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, "{ sync async }")

	ctx := context.WithValue(context.Background(), ctxKey{}, "request-scoped")
	res := exec.ExecuteRequest(ctx, doc, "", nil, nil)

	require.Empty(t, res.Errors)
	require.Equal(t, "request-scoped", syncSeen)
	require.Equal(t, "request-scoped", asyncSeen)
}
