package restrt

import (
	"context"

	trackapi "github.com/dunatron/odyssey-lift-off-part2/internal/trackapi"
)

// Sources bundles the per-request data source clients. Every incoming GraphQL
// request gets a fresh bundle so request-scoped caches never leak across
// requests.
type Sources struct {
	TrackAPI *trackapi.Client
}

type sourcesKey struct{}

// NewRequestContext returns ctx carrying the request's Sources bundle.
func NewRequestContext(ctx context.Context, s *Sources) context.Context {
	return context.WithValue(ctx, sourcesKey{}, s)
}

// SourcesFromContext extracts the request's Sources bundle, or nil.
func SourcesFromContext(ctx context.Context) *Sources {
	s, _ := ctx.Value(sourcesKey{}).(*Sources)
	return s
}
