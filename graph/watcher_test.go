package graph

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatasetWatcher(t *testing.T, path string) *Watcher {
	t.Helper()

	w, err := NewWatcher(path, func() (*Graph, error) { return LoadFile(path) }, nil)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)
	t.Cleanup(func() { w.Stop() })
	return w
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memories.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0644))

	w := newTestDatasetWatcher(t, path)
	reloaded := make(chan *Graph, 1)
	w.OnReload(func(g *Graph) error {
		select {
		case reloaded <- g:
		default:
		}
		return nil
	})
	w.Start()

	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0644))

	select {
	case g := <-reloaded:
		assert.NotEmpty(t, g.Nodes)
		assert.Equal(t, path, g.Meta.Source)
	case <-time.After(5 * time.Second):
		t.Fatal("dataset was not reloaded after write")
	}
}

func TestWatcherSkipsCallbacksOnLoadError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memories.json")
	require.NoError(t, os.WriteFile(path, []byte(`{nodes`), 0644))

	w := newTestDatasetWatcher(t, path)
	called := false
	w.OnReload(func(*Graph) error {
		called = true
		return nil
	})

	assert.Error(t, w.reload())
	assert.False(t, called)
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memories.db")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	w := newTestDatasetWatcher(t, path)

	assert.True(t, w.concerns(path))
	assert.True(t, w.concerns(path+"-wal"))
	assert.True(t, w.concerns(path+"-journal"))
	assert.False(t, w.concerns(path+"-shm.bak"))
	assert.False(t, w.concerns(filepath.Join(dir, "other.db")))
	assert.False(t, w.concerns(filepath.Join(dir, "memories.db.tmp")))
}

func TestWatcherIgnoresWritesToSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memories.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0644))

	w := newTestDatasetWatcher(t, path)
	reloaded := make(chan struct{}, 1)
	w.OnReload(func(*Graph) error {
		reloaded <- struct{}{}
		return nil
	})
	w.Start()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	select {
	case <-reloaded:
		t.Fatal("unrelated file triggered a dataset reload")
	case <-time.After(200 * time.Millisecond):
	}
}
