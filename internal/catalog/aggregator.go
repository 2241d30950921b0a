package catalog

import "filmsync/internal/models"

// Aggregate merges per-country film lists into one list with a single entry per id.
// Lists are consumed in the given order, so the configured country order decides both
// which sighting is kept and the order of availableCountries.
func Aggregate(lists []models.CountryFilms) []models.Film {
	size := 0
	for _, l := range lists {
		size += len(l.Films)
	}

	index := make(map[int64]int, size)
	out := make([]models.Film, 0, size)

	for _, l := range lists {
		for _, f := range l.Films {
			if len(f.AvailableCountries) == 0 && l.Country != "" {
				f.AvailableCountries = []string{l.Country}
			}
			if i, ok := index[f.ID]; ok {
				out[i] = MergeSighting(&out[i], f)
				continue
			}
			index[f.ID] = len(out)
			out = append(out, MergeSighting(nil, f))
		}
	}
	return out
}
