package storage

import (
	"context"
	"filmsync/internal/models"
	"filmsync/internal/providers"
	"filmsync/internal/storage/interfaces"
	"filmsync/internal/structures"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

const (
	BackendFile   = "file"
	archiveSuffix = ".prev.zst"
)

// FileManager keeps the snapshot as one flat JSON document on disk.
type FileManager struct {
	path       string
	indent     bool
	archive    bool
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		path:       conf.Persistence.FilePath,
		indent:     conf.Persistence.Indent,
		archive:    conf.Persistence.Archive,
		compressor: compressor,
		logger:     logger,
	}
}

func (f *FileManager) Backend() string {
	return BackendFile
}

func (f *FileManager) Path() string {
	return f.path
}

func (f *FileManager) ArchivePath() string {
	return f.path + archiveSuffix
}

func (f *FileManager) Load(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			f.logger.Infof(providers.TypeStorage, "No snapshot at %s, starting from an empty baseline", f.path)
			return &models.Snapshot{Films: []models.Film{}}, nil
		}
		return nil, &SnapshotReadError{Source: f.path, Err: err}
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, &SnapshotReadError{Source: f.path, Err: err}
	}
	if snapshot.Films == nil {
		snapshot.Films = []models.Film{}
	}

	return &snapshot, nil
}

func (f *FileManager) ReadAll(ctx context.Context) (map[int64]models.Film, error) {
	snapshot, err := f.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Index(), nil
}

// WriteSnapshot replaces the file atomically: the new document goes to a
// temp file in the same directory, is synced and then renamed over the old one.
func (f *FileManager) WriteSnapshot(ctx context.Context, films []models.Film, metadata models.Metadata) error {
	if err := ctx.Err(); err != nil {
		return &PersistenceError{Backend: BackendFile, Op: "start", Err: err}
	}
	if films == nil {
		films = []models.Film{}
	}

	snapshot := models.Snapshot{Films: films, Metadata: metadata}
	var (
		data []byte
		err  error
	)
	if f.indent {
		data, err = json.MarshalIndent(snapshot, "", "  ")
	} else {
		data, err = json.Marshal(snapshot)
	}
	if err != nil {
		return &PersistenceError{Backend: BackendFile, Op: "encode", Err: err}
	}

	if err = os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return &PersistenceError{Backend: BackendFile, Op: "mkdir", Err: err}
	}

	if f.archive {
		if err = f.archivePrevious(); err != nil {
			// the archive is a convenience copy, never a reason to fail the run
			f.logger.Warnf(providers.TypeStorage, "Unable to archive previous snapshot: %s", err)
		}
	}

	if err = writeAtomic(f.path, data); err != nil {
		return &PersistenceError{Backend: BackendFile, Op: "write", Err: err}
	}

	f.logger.Infof(providers.TypeStorage, "Persisted %d films to %s", len(films), f.path)
	return nil
}

func (f *FileManager) archivePrevious() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	compressed, err := f.compressor.Compress(data)
	if err != nil {
		return err
	}
	return writeAtomic(f.ArchivePath(), compressed)
}

// LoadArchive returns the snapshot replaced by the most recent write.
func (f *FileManager) LoadArchive() (*models.Snapshot, error) {
	data, err := os.ReadFile(f.ArchivePath())
	if err != nil {
		return nil, err
	}
	raw, err := f.compressor.Decompress(data)
	if err != nil {
		return nil, &SnapshotReadError{Source: f.ArchivePath(), Err: err}
	}
	var snapshot models.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, &SnapshotReadError{Source: f.ArchivePath(), Err: err}
	}
	return &snapshot, nil
}

func (f *FileManager) Close() error {
	f.compressor.Close()
	return nil
}

func writeAtomic(fileName string, data []byte) error {
	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	if err = os.Rename(tmpFile, fileName); err != nil {
		os.Remove(tmpFile)
		return err
	}
	return nil
}
