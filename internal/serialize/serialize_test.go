package serialize

import (
	"testing"

	"github.com/rohankatakam/reqtrack/internal/reqgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleGraph(t *testing.T) *reqgraph.RequestGraph {
	t.Helper()
	rg := reqgraph.New()
	rg.EnsureRequestNode("R", "build", map[string]any{"path": "/a"})
	rg.InvalidateOnFileUpdate("R", "/a/b.js")
	rg.InvalidateOnEnvChange("R", "NODE_ENV", "production")
	require.NoError(t, rg.InvalidateOnOptionChange("R", "minify", true))
	require.NoError(t, rg.InvalidateOnFileCreate("R", reqgraph.GlobInvalidation{Pattern: "**/*.ts"}))
	require.NoError(t, rg.InvalidateOnFileCreate("R", reqgraph.ExtensionlessInvalidation{
		Path: "/src/foo", Extensions: []string{".js", ".ts"},
	}))
	require.NoError(t, rg.InvalidateOnFileCreate("R", reqgraph.FileAboveInvalidation{
		FileName: "package.json", AbovePath: "/a/b/c/index.js",
	}))
	return rg
}

func TestEncodeDecodeRoundTripsGraphStructure(t *testing.T) {
	rg := buildSampleGraph(t)

	blob, err := Encode(rg)
	require.NoError(t, err)

	restored, err := Decode(blob)
	require.NoError(t, err)

	assert.ElementsMatch(t, rg.Graph().Nodes(), restored.Graph().Nodes())
	assert.ElementsMatch(t, rg.Graph().Edges(), restored.Graph().Edges())
	assert.ElementsMatch(t, rg.InvalidRequestIDs(), restored.InvalidRequestIDs())
	assert.ElementsMatch(t, rg.GlobNodeIDs(), restored.GlobNodeIDs())
	assert.ElementsMatch(t, rg.EnvNodeIDs(), restored.EnvNodeIDs())
	assert.ElementsMatch(t, rg.OptionNodeIDs(), restored.OptionNodeIDs())
}

func TestSerializeThenDeserializeThenSerializeIsByteEquivalent(t *testing.T) {
	rg := buildSampleGraph(t)

	first, err := Encode(rg)
	require.NoError(t, err)

	restored, err := Decode(first)
	require.NoError(t, err)

	second, err := Encode(restored)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
