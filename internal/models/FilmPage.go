package models

import json "github.com/goccy/go-json"

type PageMeta struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalCount  int `json:"total_count"`
}

// FilmPage is one page of the upstream browse endpoint. Films are kept raw and
// handed to the normalizer one by one.
type FilmPage struct {
	Films []json.RawMessage `json:"films"`
	Meta  PageMeta          `json:"meta"`
}
