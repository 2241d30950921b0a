package catalog

import (
	"slices"
	"time"

	"filmsync/internal/models"
)

// MergeSighting folds one more country sighting of a film into the record kept so far.
// The first sighting wins for every field except availableCountries, which is unioned
// in sighting order.
func MergeSighting(kept *models.Film, sighting models.Film) models.Film {
	if kept == nil {
		return sighting.Clone()
	}
	merged := kept.Clone()
	for _, c := range sighting.AvailableCountries {
		if !slices.Contains(merged.AvailableCountries, c) {
			merged.AvailableCountries = append(merged.AvailableCountries, c)
		}
	}
	return merged
}

// Stamp applies the write-side merge policy: first_seen is carried over from the
// previous snapshot, last_updated only moves when the film is new or modified.
func Stamp(old *models.Film, fresh models.Film, now time.Time) models.Film {
	out := fresh.Clone()
	now = now.UTC()

	if old == nil {
		out.FirstSeen = &now
		out.LastUpdated = &now
		return out
	}

	if old.FirstSeen != nil {
		t := *old.FirstSeen
		out.FirstSeen = &t
	} else {
		out.FirstSeen = &now
	}

	if Equal(*old, fresh) && old.LastUpdated != nil {
		t := *old.LastUpdated
		out.LastUpdated = &t
	} else {
		out.LastUpdated = &now
	}
	return out
}
