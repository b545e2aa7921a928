package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltStoreSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s, err := NewBoltStore(filepath.Join(dir, "graph.bolt"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	blob, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, blob)

	require.NoError(t, s.Save(ctx, []byte("payload")))
	blob, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), blob)
}
