package storage

import (
	"bytes"
	"context"
	"errors"
	"filmsync/internal/models"
	"filmsync/internal/providers"
	"filmsync/internal/structures"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb"
	json "github.com/goccy/go-json"
)

const (
	BackendCouchDB   = "couchdb"
	metadataDocID    = "latest"
	defaultBatchSize = 500
)

type filmDoc struct {
	ID       string `json:"_id"`
	Rev      string `json:"_rev,omitempty"`
	Position int    `json:"position"`
	models.Film
}

type deletedDoc struct {
	ID      string `json:"_id"`
	Rev     string `json:"_rev"`
	Deleted bool   `json:"_deleted"`
}

type metadataDoc struct {
	ID  string `json:"_id"`
	Rev string `json:"_rev,omitempty"`
	models.Metadata
}

// CouchStore keeps one document per film plus a single metadata document.
// The metadata document is written last so readers never see a sync
// summary for films that are not stored yet.
type CouchStore struct {
	client     *kivik.Client
	films      *kivik.DB
	metadata   *kivik.DB
	filmsDB    string
	metadataDB string
	batchSize  int
	logger     providers.Logger
}

func couchURL(conf structures.CouchDBConfig) (string, error) {
	u, err := url.Parse(conf.URL)
	if err != nil {
		return "", fmt.Errorf("invalid couchdb url: %w", err)
	}
	if conf.User != "" {
		u.User = url.UserPassword(conf.User, conf.Password)
	}
	return u.String(), nil
}

func NewCouchStore(ctx context.Context, conf *structures.Config, logger providers.Logger) (*CouchStore, error) {
	dsn, err := couchURL(conf.CouchDB)
	if err != nil {
		return nil, err
	}

	client, err := kivik.New("couch", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
	}

	batchSize := conf.CouchDB.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	s := &CouchStore{
		client:     client,
		filmsDB:    conf.CouchDB.FilmsDB,
		metadataDB: conf.CouchDB.MetadataDB,
		batchSize:  batchSize,
		logger:     logger,
	}

	for _, name := range []string{s.filmsDB, s.metadataDB} {
		if err := s.ensureDB(ctx, name); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	s.films = client.DB(s.filmsDB)
	s.metadata = client.DB(s.metadataDB)

	return s, nil
}

func (s *CouchStore) ensureDB(ctx context.Context, name string) error {
	exists, err := s.client.DBExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check database %s: %w", name, err)
	}
	if exists {
		return nil
	}
	if err := s.client.CreateDB(ctx, name); err != nil && kivik.HTTPStatus(err) != http.StatusPreconditionFailed {
		return fmt.Errorf("failed to create database %s: %w", name, err)
	}
	s.logger.Infof(providers.TypeStorage, "Created database: %s", name)
	return nil
}

func (s *CouchStore) Backend() string {
	return BackendCouchDB
}

func (s *CouchStore) scanFilms(ctx context.Context) ([]filmDoc, error) {
	rs := s.films.AllDocs(ctx, kivik.Param("include_docs", true))
	defer rs.Close()

	var docs []filmDoc
	for rs.Next() {
		id, err := rs.ID()
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(id, "_design/") {
			continue
		}
		var doc filmDoc
		if err := rs.ScanDoc(&doc); err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		docs = append(docs, doc)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *CouchStore) Load(ctx context.Context) (*models.Snapshot, error) {
	docs, err := s.scanFilms(ctx)
	if err != nil {
		return nil, &SnapshotReadError{Source: s.filmsDB, Err: err}
	}
	slices.SortStableFunc(docs, func(a, b filmDoc) int {
		return a.Position - b.Position
	})

	films := make([]models.Film, 0, len(docs))
	for _, doc := range docs {
		films = append(films, doc.Film)
	}

	snapshot := &models.Snapshot{Films: films}

	var meta metadataDoc
	err = s.metadata.Get(ctx, metadataDocID).ScanDoc(&meta)
	switch {
	case err == nil:
		snapshot.Metadata = meta.Metadata
	case kivik.HTTPStatus(err) == http.StatusNotFound:
	default:
		return nil, &SnapshotReadError{Source: s.metadataDB, Err: err}
	}

	return snapshot, nil
}

func (s *CouchStore) ReadAll(ctx context.Context) (map[int64]models.Film, error) {
	snapshot, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Index(), nil
}

// WriteSnapshot upserts changed film documents, deletes the ones that are no
// longer present and finally replaces the metadata document. Documents whose
// stored form is identical are left alone.
func (s *CouchStore) WriteSnapshot(ctx context.Context, films []models.Film, metadata models.Metadata) error {
	existing, err := s.scanFilms(ctx)
	if err != nil {
		return &PersistenceError{Backend: BackendCouchDB, Op: "scan", Err: err}
	}

	current := make(map[string]filmDoc, len(existing))
	for _, doc := range existing {
		current[doc.ID] = doc
	}

	pending := make([]interface{}, 0)
	for i, film := range films {
		id := strconv.FormatInt(film.ID, 10)
		doc := filmDoc{ID: id, Position: i, Film: film}
		if old, ok := current[id]; ok {
			delete(current, id)
			doc.Rev = old.Rev
			same, err := sameDoc(old, doc)
			if err != nil {
				return &PersistenceError{Backend: BackendCouchDB, Op: "encode", Err: err}
			}
			if same {
				continue
			}
		}
		pending = append(pending, doc)
	}
	for id, old := range current {
		pending = append(pending, deletedDoc{ID: id, Rev: old.Rev, Deleted: true})
	}

	// Batches are not atomic as a group: a failure after the first batch leaves
	// the films database partly rewritten under the previous metadata. Readers
	// reject such a state because total_films no longer matches.
	for start := 0; start < len(pending); start += s.batchSize {
		end := min(start+s.batchSize, len(pending))
		if err := s.bulk(ctx, pending[start:end]); err != nil {
			return &PersistenceError{Backend: BackendCouchDB, Op: "bulk_docs", Err: err}
		}
	}

	rev, err := s.metadata.GetRev(ctx, metadataDocID)
	if err != nil && kivik.HTTPStatus(err) != http.StatusNotFound {
		return &PersistenceError{Backend: BackendCouchDB, Op: "metadata", Err: err}
	}
	if _, err := s.metadata.Put(ctx, metadataDocID, metadataDoc{ID: metadataDocID, Rev: rev, Metadata: metadata}); err != nil {
		return &PersistenceError{Backend: BackendCouchDB, Op: "metadata", Err: err}
	}

	s.logger.Infof(providers.TypeStorage, "Persisted %d films to %s (%d documents written)", len(films), s.filmsDB, len(pending))
	return nil
}

func (s *CouchStore) bulk(ctx context.Context, docs []interface{}) error {
	results, err := s.films.BulkDocs(ctx, docs)
	if err != nil {
		return err
	}
	var errs []error
	for _, r := range results {
		if r.Error != nil {
			errs = append(errs, fmt.Errorf("document %s: %w", r.ID, r.Error))
		}
	}
	return errors.Join(errs...)
}

func sameDoc(a, b filmDoc) (bool, error) {
	left, err := json.Marshal(a)
	if err != nil {
		return false, err
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(left, right), nil
}

func (s *CouchStore) Close() error {
	return s.client.Close()
}
