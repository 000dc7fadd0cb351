package model

import (
	"strings"
	"time"
)

// TimestampLayout matches the ISO form browsers write for toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"2006/1/2",
	"2006-1-2",
	"2006-01",
}

// ParseDate accepts the date and timestamp shapes found in stored records.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ValidDate reports whether s parses as a date.
func ValidDate(s string) bool {
	_, ok := ParseDate(s)
	return ok
}

// SortTime is the comparison key for date-like fields; unparseable or
// missing values sort as the epoch.
func SortTime(s string) time.Time {
	if t, ok := ParseDate(s); ok {
		return t
	}
	return time.Unix(0, 0).UTC()
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
