package upstream

import "fmt"

// HTTPError is a non-200 answer from the browse endpoint.
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

func (e *HTTPError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// PageFetchError aborts the remaining pages of one country.
type PageFetchError struct {
	Country string
	Page    int
	Err     error
}

func (e *PageFetchError) Error() string {
	return fmt.Sprintf("fetch %s page %d: %v", e.Country, e.Page, e.Err)
}

func (e *PageFetchError) Unwrap() error {
	return e.Err
}
