package utils

import (
	"time"
)

// FormatTimestamp formats a Unix timestamp as RFC3339 string in UTC
func FormatTimestamp(timestamp int64) string {
	return time.Unix(timestamp, 0).UTC().Format(time.RFC3339)
}

// FormatTime formats t as RFC3339 in UTC, or "never" for the zero time
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}

// Age returns how long ago t was, truncated to seconds. Zero for the zero time.
func Age(t time.Time, now time.Time) time.Duration {
	if t.IsZero() {
		return 0
	}
	return now.Sub(t).Truncate(time.Second)
}
