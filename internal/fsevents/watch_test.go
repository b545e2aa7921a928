package fsevents

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchBatchesACreatedFile(t *testing.T) {
	dir := t.TempDir()

	batches, closeFn, err := Watch(dir, WatchOptions{DebounceWindow: 20 * time.Millisecond})
	require.NoError(t, err)
	defer closeFn()

	target := filepath.Join(dir, "new_file.txt")
	require.NoError(t, os.WriteFile(target, []byte("hi"), 0o644))

	select {
	case batch := <-batches:
		require.NotEmpty(t, batch)
		assert.Equal(t, target, batch[0].Path)
		assert.Equal(t, Create, batch[0].Type)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a batch")
	}
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "create", Create.String())
	assert.Equal(t, "update", Update.String())
	assert.Equal(t, "delete", Delete.String())
}
