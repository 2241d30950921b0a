package catalog

import (
	"slices"

	"filmsync/internal/models"
)

// Diff classifies fresh against the previous snapshot. Added and Modified keep the
// order of fresh; Removed is sorted ascending.
func Diff(old map[int64]models.Film, fresh []models.Film) models.DiffResult {
	var res models.DiffResult
	seen := make(map[int64]struct{}, len(fresh))

	for _, f := range fresh {
		seen[f.ID] = struct{}{}
		prev, ok := old[f.ID]
		switch {
		case !ok:
			res.Added = append(res.Added, f)
		case !Equal(prev, f):
			res.Modified = append(res.Modified, f)
		default:
			res.UnchangedCount++
		}
	}

	for id := range old {
		if _, ok := seen[id]; !ok {
			res.Removed = append(res.Removed, id)
		}
	}
	slices.Sort(res.Removed)

	return res
}

// Equal compares the tracked fields of two films. Multi-valued fields are compared
// as sets. Popularity and the write stamps are not tracked.
func Equal(a, b models.Film) bool {
	return a.ID == b.ID &&
		a.Title == b.Title &&
		a.OriginalTitle == b.OriginalTitle &&
		a.Duration == b.Duration &&
		a.WebURL == b.WebURL &&
		equalPtr(a.Thumbnail, b.Thumbnail) &&
		equalPtr(a.Year, b.Year) &&
		sameSet(a.AvailableCountries, b.AvailableCountries) &&
		sameSet(a.FilmCountries, b.FilmCountries) &&
		sameSet(a.Genres, b.Genres) &&
		sameSet(a.Directors, b.Directors)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// sameSet sorts copies so the caller's order is never touched.
func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	ca, cb := slices.Clone(a), slices.Clone(b)
	slices.Sort(ca)
	slices.Sort(cb)
	return slices.Equal(ca, cb)
}
