package providers

import (
	"filmsync/internal/structures"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewConfigProvider_Defaults(t *testing.T) {
	path := writeConfig(t, "logger:\n  dir: /tmp\n")

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, AppName, conf.AppName)
	assert.Equal(t, path, conf.Path)
	assert.Equal(t, "file", conf.Persistence.Backend)
	assert.Equal(t, "popularity_quality_score", conf.Upstream.Sort)
	assert.Equal(t, 2, conf.Upstream.MaxRetries)
	assert.Equal(t, time.Second, conf.Sync.PageDelay)
	assert.Equal(t, defaultCountries, conf.Sync.Countries)
	assert.Equal(t, 20, conf.Catalog.PageSize)
	assert.Equal(t, 500, conf.CouchDB.BatchSize)
}

func TestNewConfigProvider_FileValues(t *testing.T) {
	path := writeConfig(t, `
sync:
  countries: [pt, " de "]
  pageDelay: 250ms
persistence:
  backend: file
  filePath: /tmp/films.json
  archive: true
webServer:
  port: 9000
`)

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path, DebugMode: true})
	require.NoError(t, err)

	assert.True(t, conf.Debug)
	assert.Equal(t, []string{"PT", "DE"}, conf.Sync.Countries)
	assert.Equal(t, 250*time.Millisecond, conf.Sync.PageDelay)
	assert.Equal(t, "/tmp/films.json", conf.Persistence.FilePath)
	assert.True(t, conf.Persistence.Archive)
	assert.Equal(t, 9000, conf.WebServer.Port)
}

func TestNewConfigProvider_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "persistence:\n  backend: file\n")
	t.Setenv("FILMSYNC_BACKEND", "couchdb")
	t.Setenv("FILMSYNC_COUCHDB_URL", "http://couch:5984")
	t.Setenv("FILMSYNC_COUNTRIES", "gb,us")

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, "couchdb", conf.Persistence.Backend)
	assert.Equal(t, "http://couch:5984", conf.CouchDB.URL)
	assert.Equal(t, []string{"GB", "US"}, conf.Sync.Countries)
}

func TestNewConfigProvider_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "file", conf.Persistence.Backend)
}

func TestNewConfigProvider_InvalidValues(t *testing.T) {
	path := writeConfig(t, "persistence:\n  backend: sqlite\n")

	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	assert.Error(t, err)
}

func TestNormalizeCountries(t *testing.T) {
	assert.Equal(t, []string{"PT", "DE", "GB"}, normalizeCountries([]string{"pt, de", "", " gb "}))
	assert.Empty(t, normalizeCountries(nil))
}
