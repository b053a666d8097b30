package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaLoads(t *testing.T) {
	sch, err := BuildSchema()
	require.NoError(t, err)

	track := sch.Types["Track"]
	require.NotNil(t, track)
	require.NotNil(t, track.Field("author"), "exposed type has the synthesized relation")
	require.Nil(t, track.Field("authorId"), "the FK stays off the exposed type")
}

func TestResolverBindingsPassStartupCheck(t *testing.T) {
	sch, err := BuildSchema()
	require.NoError(t, err)

	reg := Resolvers(Models())
	require.NoError(t, reg.Check(sch))

	require.True(t, sch.Types["Query"].Field("tracksForHome").Async)
	require.True(t, sch.Types["Track"].Field("author").Async)
	require.True(t, sch.Types["Track"].Field("modules").Async)
	require.False(t, sch.Types["Track"].Field("title").Async)
	require.False(t, sch.Types["Author"].Field("name").Async)
}
