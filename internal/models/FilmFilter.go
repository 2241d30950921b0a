package models

// FilmFilter is a conjunction of predicates; empty fields match everything.
type FilmFilter struct {
	Genre      string
	YearBucket int
	Country    string
	Available  string
}

type FilmList struct {
	Films      []Film `json:"films"`
	NextCursor *int64 `json:"nextCursor"`
	Total      int    `json:"total"`
}
