package models

import "time"

const (
	ExitChanged   = 0
	ExitUnchanged = 1
	ExitFailed    = 2
)

type CountryReport struct {
	Country    string `json:"country"`
	Pages      int    `json:"pages"`
	TotalPages int    `json:"total_pages"`
	Films      int    `json:"films"`
	Malformed  int    `json:"malformed"`
	Failed     bool   `json:"failed"`
	Error      string `json:"error,omitempty"`
}

// RunReport is the outcome of one sync run, printed at the end and used for the exit code.
type RunReport struct {
	RunID          string          `json:"run_id"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
	Phase          string          `json:"phase"`
	FailedPhase    string          `json:"failed_phase,omitempty"`
	Error          string          `json:"error,omitempty"`
	Countries      []CountryReport `json:"countries"`
	TotalFilms     int             `json:"total_films"`
	Changes        Changes         `json:"changes"`
	UnchangedCount int             `json:"unchanged"`
	HasChanges     bool            `json:"has_changes"`
}

func (r *RunReport) Failed() bool {
	return r.FailedPhase != ""
}

// ExitCode maps the run outcome onto the process contract: 0 changed, 1 unchanged, 2 failed.
func (r *RunReport) ExitCode() int {
	switch {
	case r == nil || r.Failed():
		return ExitFailed
	case r.HasChanges:
		return ExitChanged
	default:
		return ExitUnchanged
	}
}

func (r *RunReport) FailedCountries() []string {
	var out []string
	for _, c := range r.Countries {
		if c.Failed {
			out = append(out, c.Country)
		}
	}
	return out
}

func (r *RunReport) MalformedRecords() int {
	n := 0
	for _, c := range r.Countries {
		n += c.Malformed
	}
	return n
}
