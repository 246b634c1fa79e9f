package models

import "time"

const (
	// DateLayout is the format of date-only fields.
	DateLayout = "2006-01-02"
)

// ParseDate parses a date-only value such as "2024-03-01".
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// ParseTimestamp parses an RFC 3339 date-time such as "2024-03-01T10:00:00Z".
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// FormatDate renders t as a date-only value in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// FormatTimestamp renders t as an RFC 3339 timestamp in UTC, second precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}
