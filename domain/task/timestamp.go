package task

import (
	"strings"
	"time"
)

// TimestampLayout is the layout used for timestamps written to clients.
const TimestampLayout = time.RFC3339Nano

// inputLayouts are tried in order when parsing a client-supplied timestamp.
// Layouts without a zone are read as UTC.
var inputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses a timestamp in any accepted input layout.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDueDate
}

// FormatTimestamp formats t for the wire in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
