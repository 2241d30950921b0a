package models

import (
	"slices"
	"time"
)

// Film is the canonical record shared by the sync engine, the stores and the read API.
// Multi-valued fields are kept in the order they were observed; comparison treats them as sets.
type Film struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	OriginalTitle      string     `json:"originalTitle"`
	AvailableCountries []string   `json:"availableCountries"`
	FilmCountries      []string   `json:"filmCountries"`
	Duration           int        `json:"duration"`
	Genres             []string   `json:"genres"`
	WebURL             string     `json:"webUrl"`
	Thumbnail          *string    `json:"thumbnail"`
	Year               *int       `json:"year,omitempty"`
	Directors          []string   `json:"directors"`
	Popularity         float64    `json:"popularity,omitempty"`
	FirstSeen          *time.Time `json:"first_seen,omitempty"`
	LastUpdated        *time.Time `json:"last_updated,omitempty"`
}

// Clone returns a deep copy so that aggregation never aliases slices between sightings.
func (f Film) Clone() Film {
	c := f
	c.AvailableCountries = slices.Clone(f.AvailableCountries)
	c.FilmCountries = slices.Clone(f.FilmCountries)
	c.Genres = slices.Clone(f.Genres)
	c.Directors = slices.Clone(f.Directors)
	if f.Thumbnail != nil {
		t := *f.Thumbnail
		c.Thumbnail = &t
	}
	if f.Year != nil {
		y := *f.Year
		c.Year = &y
	}
	if f.FirstSeen != nil {
		t := *f.FirstSeen
		c.FirstSeen = &t
	}
	if f.LastUpdated != nil {
		t := *f.LastUpdated
		c.LastUpdated = &t
	}
	return c
}

// IsAvailableIn reports whether the film can be streamed in the given country.
func (f Film) IsAvailableIn(country string) bool {
	return slices.Contains(f.AvailableCountries, country)
}

// CountryFilms is the normalized output of one country's fetch.
type CountryFilms struct {
	Country string
	Films   []Film
}
