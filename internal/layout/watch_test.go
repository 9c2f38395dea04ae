package layout

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsWrites(t *testing.T) {
	if testing.Short() {
		t.Skip("waits on file system events")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte(world), 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	// Changes to other files in the directory are not reported.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("maps: []\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("maps: []\n"), 0o644))

	select {
	case name := <-w.Events:
		assert.Equal(t, path, name)
	case err := <-w.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}
}

func TestWatcher_BurstReportsOnceAfterLastWrite(t *testing.T) {
	if testing.Short() {
		t.Skip("waits on file system events")
	}
	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	// Writes closer together than the debounce period, spanning more than
	// one period overall.
	var lastWrite time.Time
	for i, content := range []string{"maps: []\n", "links: []\n", world} {
		if i > 0 {
			time.Sleep(debounce * 6 / 10)
		}
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		lastWrite = time.Now()
	}

	select {
	case <-w.Events:
		assert.False(t, time.Now().Before(lastWrite.Add(debounce/2)), "reported before the burst settled")
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}

	select {
	case <-w.Events:
		t.Fatal("one burst produced two events")
	case <-time.After(3 * debounce):
	}
}

func TestWatcher_CloseClosesChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	w, err := NewWatcher(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, ok := <-w.Events
	assert.False(t, ok)
	_, ok = <-w.Errors
	assert.False(t, ok)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "absent", "world.yaml"))
	assert.Error(t, err)
}
