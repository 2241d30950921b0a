package providers

import (
	"filmsync/internal/structures"
	"fmt"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return v.Errors
	}

	seen := make(map[string]struct{}, len(cv.conf.Sync.Countries))
	for _, c := range cv.conf.Sync.Countries {
		if !isCountryCode(c) {
			return fmt.Errorf("sync.countries: %q is not an ISO 3166-1 alpha-2 code", c)
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("sync.countries: %q listed twice", c)
		}
		seen[c] = struct{}{}
	}

	if cv.conf.Persistence.Backend == "couchdb" {
		if cv.conf.CouchDB.URL == "" {
			return fmt.Errorf("couchdb.url is required when persistence.backend is couchdb")
		}
		if cv.conf.CouchDB.FilmsDB == "" || cv.conf.CouchDB.MetadataDB == "" {
			return fmt.Errorf("couchdb.filmsDb and couchdb.metadataDb are required when persistence.backend is couchdb")
		}
	}

	if cv.conf.Sync.PageDelay < 0 || cv.conf.Sync.Timeout < 0 {
		return fmt.Errorf("sync durations must not be negative")
	}

	return nil
}

func isCountryCode(c string) bool {
	if len(c) != 2 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
