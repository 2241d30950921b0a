package storage

import (
	"context"
	"filmsync/internal/providers"
	"filmsync/internal/storage/interfaces"
	"filmsync/internal/structures"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/roylee0704/gron"
)

const debounce = 250 * time.Millisecond

// Watcher reloads the read side whenever a sync replaces the snapshot. The
// file backend is watched through fsnotify; every backend is also reloaded by
// a gron job on catalog.reloadInterval so CouchDB writes from other hosts are
// picked up. gron runs at whole-second granularity.
type Watcher struct {
	config   *structures.Config
	logger   providers.Logger
	reloader interfaces.ReloaderInterface
	fs       *fsnotify.Watcher
	cron     *gron.Cron
	stop     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

func NewWatcher(config *structures.Config, logger providers.Logger, reloader interfaces.ReloaderInterface) interfaces.WatcherInterface {
	return &Watcher{
		config:   config,
		logger:   logger,
		reloader: reloader,
		stop:     make(chan struct{}),
	}
}

func (w *Watcher) Init() error {
	var events <-chan fsnotify.Event
	var errs <-chan error

	if w.config.Persistence.Backend == BackendFile {
		fs, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		// watch the directory: the snapshot is replaced by rename, which
		// drops a watch placed on the file itself
		dir := filepath.Dir(w.config.Persistence.FilePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			fs.Close()
			return err
		}
		if err := fs.Add(dir); err != nil {
			fs.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		w.fs = fs
		events, errs = fs.Events, fs.Errors
	}

	if interval := w.config.Catalog.ReloadInterval; interval > 0 {
		w.cron = gron.New()
		w.cron.AddFunc(gron.Every(interval), func() {
			w.reload("reload interval")
		})
		w.cron.Start()
	}

	target := filepath.Base(w.config.Persistence.FilePath)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		var pending <-chan time.Time
		for {
			select {
			case <-w.stop:
				return
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if filepath.Base(ev.Name) != target || !ev.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename) {
					continue
				}
				pending = time.After(debounce)
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				w.logger.Warnf(providers.TypeStorage, "File watcher error: %s", err)
			case <-pending:
				pending = nil
				w.reload("snapshot file changed")
			}
		}
	}()

	return nil
}

func (w *Watcher) reload(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := w.reloader.Reload(ctx); err != nil {
		w.logger.Errorf(providers.TypeStorage, "Catalog reload (%s) failed: %s", reason, err)
		return
	}
	w.logger.Debugf(providers.TypeStorage, "Catalog reloaded: %s", reason)
}

func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stop)
		if w.cron != nil {
			w.cron.Stop()
		}
		if w.fs != nil {
			w.fs.Close()
		}
		w.wg.Wait()
	})
}
