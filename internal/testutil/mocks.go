package testutil

import (
	"context"
	"errors"
	"filmsync/internal/models"
	"filmsync/internal/providers"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns the number of recorded entries at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data = make(map[string][]byte)
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
	Closed       bool
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() { m.Closed = true }

// MockMetrics implements providers.MetricsProviderInterface and keeps counters.
type MockMetrics struct {
	mu              sync.Mutex
	PagesFetched    map[string]int
	PageFailures    map[string]int
	Malformed       int
	Runs            []string
	Changes         [3]int
	CatalogFilms    int
	PersistCalls    int
	CacheHits       int
	CacheMisses     int
	Pushes          int
	RequestStatuses map[string]int
}

func (m *MockMetrics) IncRequestsTotal(endpoint string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RequestStatuses == nil {
		m.RequestStatuses = make(map[string]int)
	}
	m.RequestStatuses[endpoint] = status
}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}
func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}
func (m *MockMetrics) ObservePersistenceDuration(_ string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PersistCalls++
}
func (m *MockMetrics) SetCatalogFilms(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CatalogFilms = count
}
func (m *MockMetrics) IncPagesFetched(country string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PagesFetched == nil {
		m.PagesFetched = make(map[string]int)
	}
	m.PagesFetched[country]++
}
func (m *MockMetrics) IncPageFailures(country string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PageFailures == nil {
		m.PageFailures = make(map[string]int)
	}
	m.PageFailures[country]++
}
func (m *MockMetrics) IncMalformedRecords(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Malformed += count
}
func (m *MockMetrics) ObserveSyncRun(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs = append(m.Runs, outcome)
}
func (m *MockMetrics) SetSyncChanges(added, removed, modified int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Changes = [3]int{added, removed, modified}
}
func (m *MockMetrics) Push(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pushes++
	return nil
}

// MockSnapshotStore is an in-memory interfaces.SnapshotStoreInterface.
type MockSnapshotStore struct {
	mu        sync.Mutex
	Snapshot  *models.Snapshot
	ReadErr   error
	WriteErr  error
	Writes    int
	WriteCtxs []context.Context
	Closed    bool
}

func (m *MockSnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if m.Snapshot == nil {
		return &models.Snapshot{Films: []models.Film{}}, nil
	}
	films := make([]models.Film, len(m.Snapshot.Films))
	for i, f := range m.Snapshot.Films {
		films[i] = f.Clone()
	}
	return &models.Snapshot{Films: films, Metadata: m.Snapshot.Metadata}, nil
}

func (m *MockSnapshotStore) ReadAll(ctx context.Context) (map[int64]models.Film, error) {
	snapshot, err := m.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Index(), nil
}

func (m *MockSnapshotStore) WriteSnapshot(ctx context.Context, films []models.Film, metadata models.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteCtxs = append(m.WriteCtxs, ctx)
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Writes++
	m.Snapshot = &models.Snapshot{Films: films, Metadata: metadata}
	return nil
}

func (m *MockSnapshotStore) Backend() string { return "memory" }

func (m *MockSnapshotStore) Close() error {
	m.Closed = true
	return nil
}

// MockLock implements interfaces.LockInterface.
type MockLock struct {
	AcquireErr error
	Held       bool
	Releases   int
}

func (m *MockLock) Acquire() error {
	if m.AcquireErr != nil {
		return m.AcquireErr
	}
	m.Held = true
	return nil
}

func (m *MockLock) Release() error {
	m.Held = false
	m.Releases++
	return nil
}

// MockUpstream serves canned pages per country. Records are raw JSON strings;
// a page listed in Failures returns that error instead.
type MockUpstream struct {
	mu       sync.Mutex
	Pages    map[string][][]string
	Failures map[string]map[int]error
	Calls    []string
	// OnFetch runs before every fetch, e.g. to cancel a context mid-run.
	OnFetch func(country string, page int)
}

var ErrNoSuchPage = errors.New("no such page")

func (m *MockUpstream) FetchPage(ctx context.Context, country string, page int) (*models.FilmPage, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, fmt.Sprintf("%s:%d", country, page))
	onFetch := m.OnFetch
	m.mu.Unlock()

	if onFetch != nil {
		onFetch(country, page)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.Failures[country][page]; ok {
		return nil, err
	}

	pages := m.Pages[country]
	if page < 1 || page > len(pages) {
		if len(pages) == 0 && page == 1 {
			return &models.FilmPage{Meta: models.PageMeta{CurrentPage: 1, TotalPages: 0}}, nil
		}
		return nil, ErrNoSuchPage
	}

	records := pages[page-1]
	raw := make([]json.RawMessage, len(records))
	for i, r := range records {
		raw[i] = json.RawMessage(r)
	}
	return &models.FilmPage{
		Films: raw,
		Meta:  models.PageMeta{CurrentPage: page, TotalPages: len(pages), TotalCount: len(pages) * len(records)},
	}, nil
}

func (m *MockUpstream) CallsSnapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls...)
}
