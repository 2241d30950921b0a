package providers

import (
	"errors"
	"filmsync/internal/structures"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const AppName = "FilmSync"

var defaultCountries = []string{
	"PT", "DE", "GB", "US", "FR", "JP", "AR", "ES", "IT", "CA", "BR", "AU",
	"NL", "SE", "IN", "ZA", "MX", "AF", "EG", "KR", "NO", "CL", "NZ", "TR",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("upstream.baseUrl", "https://api.mubi.com/v4/browse/films")
	v.SetDefault("upstream.sort", "popularity_quality_score")
	v.SetDefault("upstream.playableOnly", true)
	v.SetDefault("upstream.language", "en")
	v.SetDefault("upstream.client", "web")
	v.SetDefault("upstream.timeout", 20*time.Second)
	v.SetDefault("upstream.maxRetries", 2)
	v.SetDefault("upstream.retryInterval", time.Second)

	v.SetDefault("sync.countries", defaultCountries)
	v.SetDefault("sync.pageDelay", time.Second)
	v.SetDefault("sync.lockFile", "./data/filmsync.lock")

	v.SetDefault("webServer.host", "0.0.0.0")
	v.SetDefault("webServer.port", 8090)

	v.SetDefault("persistence.backend", "file")
	v.SetDefault("persistence.filePath", "./data/mubi-films.json")
	v.SetDefault("persistence.indent", true)

	v.SetDefault("couchdb.filmsDb", "mubi_films")
	v.SetDefault("couchdb.metadataDb", "mubi_metadata")
	v.SetDefault("couchdb.batchSize", 500)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("logger.dir", "./data")

	v.SetDefault("catalog.pageSize", 20)
	v.SetDefault("catalog.reloadInterval", 5*time.Minute)

	v.SetDefault("cache.size", 32)
	v.SetDefault("cache.ttl", 60)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("unable to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.BindEnv("logger.level", "FILMSYNC_LOG_LEVEL")
	v.BindEnv("persistence.backend", "FILMSYNC_BACKEND")
	v.BindEnv("persistence.filePath", "FILMSYNC_FILE_PATH")
	v.BindEnv("couchdb.url", "FILMSYNC_COUCHDB_URL")
	v.BindEnv("couchdb.user", "FILMSYNC_COUCHDB_USER")
	v.BindEnv("couchdb.password", "FILMSYNC_COUCHDB_PASSWORD")
	v.BindEnv("sync.countries", "FILMSYNC_COUNTRIES")
	v.BindEnv("sync.pageDelay", "FILMSYNC_PAGE_DELAY")
	v.BindEnv("metrics.pushGateway", "FILMSYNC_PUSHGATEWAY")

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	conf.Sync.Countries = normalizeCountries(conf.Sync.Countries)

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = AppName
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

// normalizeCountries accepts both YAML lists and the comma separated env form.
func normalizeCountries(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, c := range strings.Split(item, ",") {
			c = strings.ToUpper(strings.TrimSpace(c))
			if c != "" {
				out = append(out, c)
			}
		}
	}
	return out
}
