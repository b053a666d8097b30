// Package catalog wires the learning-track graph: the served schema, the
// backing record shapes, and the resolver bindings over the catalog REST API.
package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	model "github.com/dunatron/odyssey-lift-off-part2/internal/model"
	restrt "github.com/dunatron/odyssey-lift-off-part2/internal/restrt"
	schema "github.com/dunatron/odyssey-lift-off-part2/internal/schema"
	trackapi "github.com/dunatron/odyssey-lift-off-part2/internal/trackapi"
)

// DefaultBaseURL is the public catalog REST API.
const DefaultBaseURL = "https://odyssey-lift-off-rest-api.herokuapp.com"

//go:embed schema.graphql
var schemaSDL string

// SchemaSDL returns the served schema in SDL form.
func SchemaSDL() string { return schemaSDL }

// BuildSchema loads the embedded SDL into an executable schema.
func BuildSchema() (*schema.Schema, error) {
	return schema.BuildFromSDL(schemaSDL)
}

// Models declares the record shapes the REST API returns. The track record
// references its author by authorId; the exposed Track.author and
// Track.modules fields are synthesized by resolvers.
func Models() *model.Registry {
	models := model.NewRegistry()
	models.MustRegister(model.NewEntity("Track", "id",
		"id", "title", "authorId", "thumbnail", "length", "modulesCount",
		"description", "numberOfViews"))
	models.MustRegister(model.NewEntity("Author", "id",
		"id", "name", "photo"))
	models.MustRegister(model.NewEntity("Module", "id",
		"id", "title", "length"))
	return models
}

// Resolvers binds the root fields and relations. Everything else resolves by
// the identity default.
func Resolvers(models *model.Registry) *restrt.Registry {
	reg := restrt.NewRegistry(models)

	reg.BindRoot("Query", "tracksForHome",
		func(ctx context.Context, s *restrt.Sources, args map[string]any) (any, error) {
			return s.TrackAPI.TracksForHome(ctx)
		})
	reg.BindRoot("Query", "track",
		func(ctx context.Context, s *restrt.Sources, args map[string]any) (any, error) {
			id, _ := args["id"].(string)
			if id == "" {
				return nil, fmt.Errorf("catalog: track id is required")
			}
			return s.TrackAPI.Track(ctx, id)
		})

	reg.BindRelation("Track", "author", restrt.Relation{
		KeyField: "authorId",
		Fetch: func(ctx context.Context, s *restrt.Sources, key string) (any, error) {
			return s.TrackAPI.Author(ctx, key)
		},
	})
	reg.BindRelation("Track", "modules", restrt.Relation{
		KeyField: "id",
		Fetch: func(ctx context.Context, s *restrt.Sources, key string) (any, error) {
			return s.TrackAPI.TrackModules(ctx, key)
		},
	})

	return reg
}

// SourcesFactory returns the per-request Sources constructor the server hook
// installs into each request context.
func SourcesFactory(f *trackapi.Factory) func(r *http.Request) *restrt.Sources {
	return func(r *http.Request) *restrt.Sources {
		var incoming http.Header
		if r != nil {
			incoming = r.Header
		}
		return &restrt.Sources{TrackAPI: f.NewClient(incoming)}
	}
}
