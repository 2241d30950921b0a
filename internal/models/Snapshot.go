package models

import "time"

type Changes struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
}

type LastSync struct {
	Timestamp       time.Time `json:"timestamp"`
	TotalFilms      int       `json:"total_films"`
	Changes         Changes   `json:"changes"`
	RunID           string    `json:"run_id,omitempty"`
	FailedCountries []string  `json:"failed_countries,omitempty"`
}

type Metadata struct {
	Countries  []string `json:"countries"`
	TotalFilms int      `json:"total_films"`
	LastSync   LastSync `json:"last_sync"`
}

// Snapshot is the persisted catalog: the shape of the flat JSON file and of the
// films collection plus its metadata document.
type Snapshot struct {
	Films    []Film   `json:"films"`
	Metadata Metadata `json:"metadata"`
}

// Version identifies a snapshot generation for cache keys.
func (s *Snapshot) Version() int64 {
	if s == nil {
		return 0
	}
	return s.Metadata.LastSync.Timestamp.UnixNano()
}

// Index maps film ids to films.
func (s *Snapshot) Index() map[int64]Film {
	if s == nil {
		return make(map[int64]Film)
	}
	idx := make(map[int64]Film, len(s.Films))
	for _, f := range s.Films {
		idx[f.ID] = f
	}
	return idx
}
