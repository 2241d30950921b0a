package interfaces

import (
	"context"
	"filmsync/internal/models"
)

// SnapshotStoreInterface is the persistence collaborator of a sync run and
// the source of the read API.
type SnapshotStoreInterface interface {
	// ReadAll returns the previously persisted films keyed by id. A missing
	// snapshot yields an empty map.
	ReadAll(ctx context.Context) (map[int64]models.Film, error)
	// WriteSnapshot replaces the persisted snapshot as a whole.
	WriteSnapshot(ctx context.Context, films []models.Film, metadata models.Metadata) error
	Load(ctx context.Context) (*models.Snapshot, error)
	Backend() string
	Close() error
}
