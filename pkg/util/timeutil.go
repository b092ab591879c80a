package util

import (
	"strings"
	"time"
)

// DateLayout is the calendar format used by the chart backend.
const DateLayout = "2006-01-02"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseDate parses a YYYY-MM-DD string, reporting false for anything else.
func ParseDate(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
