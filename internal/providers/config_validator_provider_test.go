package providers

import (
	"filmsync/internal/structures"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *structures.Config {
	return &structures.Config{
		Upstream: structures.UpstreamConfig{
			BaseURL:    "https://api.mubi.com/v4/browse/films",
			Sort:       "popularity_quality_score",
			MaxRetries: 2,
		},
		Sync: structures.SyncConfig{
			Countries: []string{"PT", "DE"},
			PageDelay: time.Second,
			LockFile:  "/tmp/filmsync.lock",
		},
		WebServer: structures.Server{
			Host: "0.0.0.0",
			Port: 8090,
		},
		Persistence: structures.Persistence{
			Backend:  "file",
			FilePath: "/tmp/mubi-films.json",
		},
		CouchDB: structures.CouchDBConfig{
			FilmsDB:    "mubi_films",
			MetadataDB: "mubi_metadata",
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/tmp/logs",
		},
	}
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_EmptyHost(t *testing.T) {
	c := validConfig()
	c.WebServer.Host = ""
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_ZeroPort(t *testing.T) {
	c := validConfig()
	c.WebServer.Port = 0
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_InvalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_UnknownBackend(t *testing.T) {
	c := validConfig()
	c.Persistence.Backend = "postgres"
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_NoCountries(t *testing.T) {
	c := validConfig()
	c.Sync.Countries = nil
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_BadCountryCode(t *testing.T) {
	c := validConfig()
	c.Sync.Countries = []string{"PT", "Germany"}
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_DuplicateCountry(t *testing.T) {
	c := validConfig()
	c.Sync.Countries = []string{"PT", "DE", "PT"}
	assert.Error(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_CouchDBRequiresURL(t *testing.T) {
	c := validConfig()
	c.Persistence.Backend = "couchdb"
	assert.Error(t, NewCnfValidator(c).Validate())

	c.CouchDB.URL = "http://localhost:5984"
	assert.NoError(t, NewCnfValidator(c).Validate())
}

func TestConfigValidator_NegativePageDelay(t *testing.T) {
	c := validConfig()
	c.Sync.PageDelay = -time.Second
	assert.Error(t, NewCnfValidator(c).Validate())
}
