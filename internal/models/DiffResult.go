package models

// DiffResult classifies a freshly aggregated catalog against the previous snapshot.
type DiffResult struct {
	Added          []Film
	Removed        []int64
	Modified       []Film
	UnchangedCount int
}

func (d DiffResult) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Modified) > 0
}

func (d DiffResult) Changes() Changes {
	return Changes{
		Added:    len(d.Added),
		Removed:  len(d.Removed),
		Modified: len(d.Modified),
	}
}
