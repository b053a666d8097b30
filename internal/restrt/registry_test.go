package restrt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	model "github.com/dunatron/odyssey-lift-off-part2/internal/model"
	schema "github.com/dunatron/odyssey-lift-off-part2/internal/schema"
)

func catalogSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.BuildFromSDL(`
		type Query {
			tracksForHome: [Track!]!
			track(id: ID!): Track
		}
		type Track {
			id: ID!
			title: String!
			author: Author
		}
		type Author {
			id: ID!
			name: String!
		}
	`)
	require.NoError(t, err)
	return sch
}

func catalogModels() *model.Registry {
	models := model.NewRegistry()
	models.MustRegister(model.NewEntity("Track", "id", "id", "title", "authorId"))
	models.MustRegister(model.NewEntity("Author", "id", "id", "name"))
	return models
}

func noopRoot(ctx context.Context, s *Sources, args map[string]any) (any, error) {
	return nil, nil
}

func noopFetch(ctx context.Context, s *Sources, key string) (any, error) {
	return nil, nil
}

func TestCheckMarksBoundFieldsAsync(t *testing.T) {
	sch := catalogSchema(t)
	reg := NewRegistry(catalogModels()).
		BindRoot("Query", "tracksForHome", noopRoot).
		BindRoot("Query", "track", noopRoot).
		BindRelation("Track", "author", Relation{KeyField: "authorId", Fetch: noopFetch})

	require.NoError(t, reg.Check(sch))

	query := sch.Types["Query"]
	require.True(t, query.Field("tracksForHome").Async)
	require.True(t, query.Field("track").Async)

	track := sch.Types["Track"]
	require.True(t, track.Field("author").Async)
	require.False(t, track.Field("id").Async, "record properties stay sync")
	require.False(t, track.Field("title").Async)
}

func TestCheckRejectsUnboundRootField(t *testing.T) {
	sch := catalogSchema(t)
	reg := NewRegistry(catalogModels()).
		BindRoot("Query", "tracksForHome", noopRoot).
		BindRelation("Track", "author", Relation{KeyField: "authorId", Fetch: noopFetch})

	err := reg.Check(sch)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Query.track")
}

func TestCheckRejectsModelMismatch(t *testing.T) {
	sch := catalogSchema(t)
	// No relation bound for Track.author and the record carries no "author"
	// property, so Check must flag the mismatch at startup.
	reg := NewRegistry(catalogModels()).
		BindRoot("Query", "tracksForHome", noopRoot).
		BindRoot("Query", "track", noopRoot)

	err := reg.Check(sch)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Track.author")
	require.Contains(t, err.Error(), "neither bound nor present")
}

func TestCheckRejectsRelationWithUnknownKeyField(t *testing.T) {
	sch := catalogSchema(t)
	reg := NewRegistry(catalogModels()).
		BindRoot("Query", "tracksForHome", noopRoot).
		BindRoot("Query", "track", noopRoot).
		BindRelation("Track", "author", Relation{KeyField: "ownerId", Fetch: noopFetch})

	err := reg.Check(sch)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ownerId")
}

func TestCheckRejectsTypeWithoutEntity(t *testing.T) {
	sch := catalogSchema(t)
	models := model.NewRegistry()
	models.MustRegister(model.NewEntity("Track", "id", "id", "title", "authorId"))
	// Author never registered
	reg := NewRegistry(models).
		BindRoot("Query", "tracksForHome", noopRoot).
		BindRoot("Query", "track", noopRoot).
		BindRelation("Track", "author", Relation{KeyField: "authorId", Fetch: noopFetch})

	err := reg.Check(sch)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Author")
}
