package backup

import (
	"fmt"
	"time"
)

// idLayout formats snapshot identifiers: 14 digits, no separators.
const idLayout = "20060102150405"

// NewID returns the snapshot identifier for t in t's location.
func NewID(t time.Time) string {
	return t.Format(idLayout)
}

// ParseID parses a snapshot identifier in the local time zone.
func ParseID(id string) (time.Time, error) {
	if len(id) != len(idLayout) {
		return time.Time{}, fmt.Errorf("snapshot id %q: want %d digits", id, len(idLayout))
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return time.Time{}, fmt.Errorf("snapshot id %q: not numeric", id)
		}
	}
	t, err := time.ParseInLocation(idLayout, id, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("snapshot id %q: %w", id, err)
	}
	return t, nil
}
