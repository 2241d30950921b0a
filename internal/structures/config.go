package structures

import "time"

type Server struct {
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"required|uint|min:1"`
}

type UpstreamConfig struct {
	BaseURL       string        `mapstructure:"baseUrl" validate:"required|url"`
	Sort          string        `mapstructure:"sort" validate:"required"`
	PlayableOnly  bool          `mapstructure:"playableOnly"`
	Language      string        `mapstructure:"language"`
	Client        string        `mapstructure:"client"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"maxRetries" validate:"min:0"`
	RetryInterval time.Duration `mapstructure:"retryInterval"`
}

type SyncConfig struct {
	Countries             []string      `mapstructure:"countries" validate:"required"`
	PageDelay             time.Duration `mapstructure:"pageDelay"`
	DiscardPartialCountry bool          `mapstructure:"discardPartialCountry"`
	LockFile              string        `mapstructure:"lockFile" validate:"required"`
	Timeout               time.Duration `mapstructure:"timeout"`
}

type Persistence struct {
	Backend  string `mapstructure:"backend" validate:"required|in:file,couchdb"`
	FilePath string `mapstructure:"filePath" validate:"required"`
	Archive  bool   `mapstructure:"archive"`
	Indent   bool   `mapstructure:"indent"`
}

type CouchDBConfig struct {
	URL        string `mapstructure:"url"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	FilmsDB    string `mapstructure:"filmsDb"`
	MetadataDB string `mapstructure:"metadataDb"`
	BatchSize  int    `mapstructure:"batchSize"`
}

type LoggerConfig struct {
	Level   string `mapstructure:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode    uint32 `mapstructure:"mode" validate:"required|uint"`
	Dir     string `mapstructure:"dir" validate:"required"`
	Console bool   `mapstructure:"console"`
}

type CatalogConfig struct {
	PageSize       int           `mapstructure:"pageSize"`
	ReloadInterval time.Duration `mapstructure:"reloadInterval"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Size    int  `mapstructure:"size"`
	TTL     int  `mapstructure:"ttl"`
}

type MetricsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	PushGateway string `mapstructure:"pushGateway"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Upstream    UpstreamConfig `mapstructure:"upstream"`
	Sync        SyncConfig     `mapstructure:"sync"`
	WebServer   Server         `mapstructure:"webServer"`
	Persistence Persistence    `mapstructure:"persistence"`
	CouchDB     CouchDBConfig  `mapstructure:"couchdb"`
	Logger      LoggerConfig   `mapstructure:"logger"`
	Catalog     CatalogConfig  `mapstructure:"catalog"`
	Cache       CacheConfig    `mapstructure:"cache"`
	Metrics     MetricsConfig  `mapstructure:"metrics"`
}
