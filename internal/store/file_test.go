package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreLoadMissingReturnsNil(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "graph.msgpack"))
	require.NoError(t, err)

	blob, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestFileStoreSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "graph.msgpack"))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, []byte("hello")))

	blob, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), blob)

	require.NoError(t, s.Save(ctx, []byte("world")))
	blob, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), blob)
}
