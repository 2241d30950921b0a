package catalog

import "fmt"

// MalformedRecordError marks an upstream record that lacks a mandatory field.
// The record is dropped; the run continues.
type MalformedRecordError struct {
	Country string
	Field   string
	Raw     string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record from %s: missing %s", e.Country, e.Field)
}
