package catalog

import (
	"filmsync/internal/models"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

const rawPreviewLen = 120

// Normalize maps one raw browse-API record into a Film seeded with sourceCountry.
// Optional fields that are absent become empty collections or nil; only a missing
// id or title is an error.
func Normalize(raw []byte, sourceCountry string) (models.Film, error) {
	if !gjson.ValidBytes(raw) {
		return models.Film{}, &MalformedRecordError{Country: sourceCountry, Field: "valid json", Raw: preview(raw)}
	}
	rec := gjson.ParseBytes(raw)

	id, ok := parseID(rec.Get("id"))
	if !ok {
		return models.Film{}, &MalformedRecordError{Country: sourceCountry, Field: "id", Raw: preview(raw)}
	}
	title := rec.Get("title")
	if title.Type != gjson.String || strings.TrimSpace(title.String()) == "" {
		return models.Film{}, &MalformedRecordError{Country: sourceCountry, Field: "title", Raw: preview(raw)}
	}

	film := models.Film{
		ID:                 id,
		Title:              title.String(),
		OriginalTitle:      rec.Get("original_title").String(),
		AvailableCountries: []string{sourceCountry},
		FilmCountries:      stringArray(rec.Get("historic_countries")),
		Duration:           int(rec.Get("duration").Int()),
		Genres:             stringArray(rec.Get("genres")),
		WebURL:             rec.Get("web_url").String(),
		Directors:          stringArray(rec.Get("directors.#.name")),
		Popularity:         rec.Get("popularity").Float(),
	}

	if thumb := rec.Get("stills.large_overlaid"); thumb.Type == gjson.String && thumb.String() != "" {
		s := thumb.String()
		film.Thumbnail = &s
	}
	if year := rec.Get("year"); year.Type == gjson.Number {
		y := int(year.Int())
		film.Year = &y
	}

	return film, nil
}

func parseID(v gjson.Result) (int64, bool) {
	switch v.Type {
	case gjson.Number:
		id, err := strconv.ParseInt(v.Raw, 10, 64)
		return id, err == nil
	case gjson.String:
		id, err := strconv.ParseInt(strings.TrimSpace(v.String()), 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}

// stringArray collects the string members of a JSON array, skipping nulls and non-strings.
func stringArray(v gjson.Result) []string {
	out := []string{}
	if !v.IsArray() {
		return out
	}
	for _, item := range v.Array() {
		if item.Type == gjson.String && item.String() != "" {
			out = append(out, item.String())
		}
	}
	return out
}

func preview(raw []byte) string {
	if len(raw) <= rawPreviewLen {
		return string(raw)
	}
	return string(raw[:rawPreviewLen]) + "..."
}
