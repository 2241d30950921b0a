package storage

import (
	"context"
	"filmsync/internal/providers"
	"filmsync/internal/storage/interfaces"
	"filmsync/internal/structures"
	"fmt"
)

func NewSnapshotStore(conf *structures.Config, logger providers.Logger) (interfaces.SnapshotStoreInterface, error) {
	switch conf.Persistence.Backend {
	case BackendCouchDB:
		return NewCouchStore(context.Background(), conf, logger)
	case BackendFile, "":
		compressor, err := NewZstdCompressor()
		if err != nil {
			return nil, err
		}
		return NewFileManager(conf, compressor, logger), nil
	default:
		return nil, fmt.Errorf("unknown persistence backend %q", conf.Persistence.Backend)
	}
}
