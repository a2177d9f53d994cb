package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidExpiry means the expiry string matched none of the accepted
// timestamp forms.
var ErrInvalidExpiry = errors.New("invalid expiry format")

// Layouts tried after RFC 3339 fails. Enrollment clients send a mix of
// truncated ISO forms, so parsing is deliberately lenient.
var expiryLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseExpiry parses a flexible ISO-8601 expiry timestamp. RFC 3339 input
// (including a trailing "Z" or a numeric offset) is handled first; a small
// set of lenient layouts is tried as a fallback, interpreted as UTC. An
// empty string means never-expires and yields nil.
func ParseExpiry(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	for _, layout := range expiryLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidExpiry, value)
}

// nullableTime maps the zero time to nil so SQL COALESCE can supply NOW().
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
