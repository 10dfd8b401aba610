package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) *FileSystemAdapter {
	t.Helper()
	adapter, err := NewFileSystemAdapter(t.TempDir())
	require.NoError(t, err)
	return adapter
}

func TestNewFileSystemAdapter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "store")
	adapter, err := NewFileSystemAdapter(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, adapter.Root())
	assert.DirExists(t, dir)
}

func TestNewFileSystemAdapter_EmptyDir(t *testing.T) {
	_, err := NewFileSystemAdapter("")
	assert.Error(t, err)
}

func TestFileSystemAdapter_StoreLoadRoundtrip(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	value := []byte(`{"id":"abc","state":"active"}`)
	require.NoError(t, adapter.Store(ctx, "session-abc.json", value))

	got, err := adapter.Load(ctx, "session-abc.json")
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestFileSystemAdapter_StoreReplacesAtomically(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Store(ctx, "session-abc.json", []byte("v1")))
	require.NoError(t, adapter.Store(ctx, "session-abc.json", []byte("v2")))

	got, err := adapter.Load(ctx, "session-abc.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	// No temp file leftovers
	entries, err := os.ReadDir(adapter.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileSystemAdapter_LoadMissing(t *testing.T) {
	adapter := newTestAdapter(t)

	_, err := adapter.Load(context.Background(), "session-missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileSystemAdapter_Delete(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Store(ctx, "session-abc.json", []byte("v")))
	require.NoError(t, adapter.Delete(ctx, "session-abc.json"))

	_, err := adapter.Load(ctx, "session-abc.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileSystemAdapter_DeleteMissing(t *testing.T) {
	adapter := newTestAdapter(t)

	err := adapter.Delete(context.Background(), "session-missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileSystemAdapter_List(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Store(ctx, "session-a.json", []byte("a")))
	require.NoError(t, adapter.Store(ctx, "session-b.json", []byte("b")))
	require.NoError(t, adapter.Store(ctx, "manifest.json", []byte("m")))

	keys, err := adapter.List(ctx, "session-*.json")
	require.NoError(t, err)
	sort.Strings(keys)

	want := []string{"session-a.json", "session-b.json"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestFileSystemAdapter_ListMissingRootIsEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	adapter, err := NewFileSystemAdapter(dir)
	require.NoError(t, err)

	// Simulate a backing location that vanished (or was never created).
	require.NoError(t, os.RemoveAll(dir))

	keys, err := adapter.List(context.Background(), "session-*.json")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFileSystemAdapter_ListNoMatches(t *testing.T) {
	adapter := newTestAdapter(t)

	keys, err := adapter.List(context.Background(), "session-*.json")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFileSystemAdapter_ListBadPattern(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Store(ctx, "session-a.json", []byte("a")))

	_, err := adapter.List(ctx, "[")
	assert.Error(t, err)
}

func TestFileSystemAdapter_InvalidKeys(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"dot", "."},
		{"dot dot", ".."},
		{"path separator", "a/b"},
		{"backslash", `a\b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, adapter.Store(ctx, tt.key, []byte("v")), ErrInvalidKey)

			_, err := adapter.Load(ctx, tt.key)
			assert.ErrorIs(t, err, ErrInvalidKey)

			assert.ErrorIs(t, adapter.Delete(ctx, tt.key), ErrInvalidKey)
		})
	}
}

func TestFileSystemAdapter_CanceledContext(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, adapter.Store(ctx, "session-abc.json", []byte("v")))
	_, err := adapter.Load(ctx, "session-abc.json")
	assert.Error(t, err)
}
