package storage

import "fmt"

// SnapshotReadError reports a baseline that exists but cannot be decoded.
type SnapshotReadError struct {
	Source string
	Err    error
}

func (e *SnapshotReadError) Error() string {
	return fmt.Sprintf("read snapshot %s: %v", e.Source, e.Err)
}

func (e *SnapshotReadError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a failed snapshot write. The previous snapshot is
// left in place.
type PersistenceError struct {
	Backend string
	Op      string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist snapshot (%s, %s): %v", e.Backend, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
