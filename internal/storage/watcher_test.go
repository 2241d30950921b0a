package storage

import (
	"context"
	"filmsync/internal/structures"
	"filmsync/internal/testutil"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReloader struct {
	calls atomic.Int32
}

func (r *countingReloader) Reload(_ context.Context) error {
	r.calls.Add(1)
	return nil
}

func TestWatcher_ReloadsOnSnapshotReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "films.json")
	conf := fileConfig(path)
	reloader := &countingReloader{}

	w := NewWatcher(conf, &testutil.MockLogger{}, reloader)
	require.NoError(t, w.Init())
	defer w.Stop()

	require.NoError(t, writeAtomic(path, []byte(`{"films":[]}`)))

	assert.Eventually(t, func() bool { return reloader.calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	conf := fileConfig(filepath.Join(dir, "films.json"))
	reloader := &countingReloader{}

	w := NewWatcher(conf, &testutil.MockLogger{}, reloader)
	require.NoError(t, w.Init())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644))

	time.Sleep(4 * debounce)
	assert.Equal(t, int32(0), reloader.calls.Load())
}

func TestWatcher_ReloadsOnInterval(t *testing.T) {
	conf := &structures.Config{
		Persistence: structures.Persistence{Backend: BackendCouchDB},
		Catalog:     structures.CatalogConfig{ReloadInterval: time.Second},
	}
	reloader := &countingReloader{}

	w := NewWatcher(conf, &testutil.MockLogger{}, reloader)
	require.NoError(t, w.Init())

	assert.Eventually(t, func() bool { return reloader.calls.Load() >= 1 }, 4*time.Second, 50*time.Millisecond)
	w.Stop()
	w.Stop()
}

func TestWatcher_NoIntervalNoJob(t *testing.T) {
	conf := &structures.Config{Persistence: structures.Persistence{Backend: BackendCouchDB}}
	reloader := &countingReloader{}

	w := NewWatcher(conf, &testutil.MockLogger{}, reloader)
	require.NoError(t, w.Init())
	w.Stop()

	assert.Equal(t, int32(0), reloader.calls.Load())
}
