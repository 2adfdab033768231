package utils

import (
	"testing"
	"time"
)

func TestFormatTimestamp(t *testing.T) {
	if got := FormatTimestamp(1690000000); got != "2023-07-22T04:26:40Z" {
		t.Errorf("FormatTimestamp = %q, want 2023-07-22T04:26:40Z", got)
	}
}

func TestFormatTime(t *testing.T) {
	if got := FormatTime(time.Time{}); got != "never" {
		t.Errorf("FormatTime(zero) = %q, want never", got)
	}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	if got := FormatTime(at); got != "2024-01-02T02:04:05Z" {
		t.Errorf("FormatTime = %q, want 2024-01-02T02:04:05Z", got)
	}
}

func TestAge(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC)
	if got := Age(now.Add(-90*time.Second-300*time.Millisecond), now); got != 90*time.Second {
		t.Errorf("Age = %v, want 1m30s", got)
	}
	if got := Age(time.Time{}, now); got != 0 {
		t.Errorf("Age(zero) = %v, want 0", got)
	}
}
