package storage

import (
	"errors"
	"filmsync/internal/storage/interfaces"
	"filmsync/internal/structures"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("another sync run holds the lock")

// RunLock makes a sync run the exclusive owner of the snapshot.
type RunLock struct {
	lock *flock.Flock
}

func NewRunLock(conf *structures.Config) interfaces.LockInterface {
	return &RunLock{lock: flock.New(conf.Sync.LockFile)}
}

func (l *RunLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.lock.Path()), 0755); err != nil {
		return fmt.Errorf("lock dir: %w", err)
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", l.lock.Path(), err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, l.lock.Path())
	}
	return nil
}

func (l *RunLock) Release() error {
	return l.lock.Unlock()
}
