package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDShapes(t *testing.T) {
	assert.Equal(t, "/a/b.js", NewFile("/a/b.js").ID())
	assert.Equal(t, "src/**/*.ts", NewGlob("src/**/*.ts").ID())
	assert.Equal(t, "file_name:package.json", NewFileName("package.json").ID())
	assert.Equal(t, "extensionless_file:/src/foo", NewExtensionlessFile("/src/foo", nil).ID())
	assert.Equal(t, "env:NODE_ENV", NewEnv("NODE_ENV", "production").ID())
	assert.Equal(t, "option:minify", NewOption("minify", "deadbeef").ID())
}

func TestExtensionlessFileUnion(t *testing.T) {
	ef := NewExtensionlessFile("/src/foo", []string{".ts"})
	assert.True(t, ef.HasExtension(".ts"))
	assert.False(t, ef.HasExtension(".js"))

	grew := ef.UnionExtensions([]string{".ts", ".js"})
	assert.True(t, grew, "adding a genuinely new extension should report growth")
	assert.True(t, ef.HasExtension(".js"))

	grewAgain := ef.UnionExtensions([]string{".js"})
	assert.False(t, grewAgain, "re-declaring an existing extension should not report growth")
}

func TestStableHashIsOrderIndependent(t *testing.T) {
	a := map[string]any{"x": 1, "y": "two"}
	b := map[string]any{"y": "two", "x": 1}

	hashA, err := StableHash(a)
	require.NoError(t, err)
	hashB, err := StableHash(b)
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB, "structurally equivalent maps must hash identically regardless of field order")
}

func TestNewOpaqueRequestIDUnique(t *testing.T) {
	a := NewOpaqueRequestID("demo_session")
	b := NewOpaqueRequestID("demo_session")
	assert.NotEqual(t, a, b, "two opaque ids for the same request type must not collide")
	assert.Contains(t, a, "demo_session:")
}

func TestComputeRequestIDDeterministic(t *testing.T) {
	id1, err := ComputeRequestID("resolve", map[string]string{"specifier": "./foo"})
	require.NoError(t, err)
	id2, err := ComputeRequestID("resolve", map[string]string{"specifier": "./foo"})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	id3, err := ComputeRequestID("resolve", map[string]string{"specifier": "./bar"})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}
