package domain

import (
	"strings"
	"time"
)

// ParseReportTime parses an Atom/JMA timestamp string. The upstream feed uses
// ISO-8601 with either an explicit offset or a literal "Z" suffix; "Z" is
// normalized to "+00:00" before parsing. Returns false for empty, "N/A", or
// otherwise unparseable input.
func ParseReportTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == NotAvailable {
		return time.Time{}, false
	}
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// windowStart returns the oldest report time still inside the retention window.
func windowStart(thresholdHours int) time.Time {
	return clock.Now().UTC().Add(-time.Duration(thresholdHours) * time.Hour)
}

// WithinWindow reports whether a feed timestamp falls inside the retention
// window of thresholdHours before now.
//
// Unparseable timestamps are treated as within the window (fail open): data
// whose age is unknown is never silently dropped at the fetch stage. The
// parse stage re-checks the same window and excludes an entry only when its
// timestamp is determinate and stale (fail closed); see ParseEntries. The
// asymmetry is intentional and load-bearing for which placeholder rows
// surface.
func WithinWindow(timestamp string, thresholdHours int) bool {
	t, ok := ParseReportTime(timestamp)
	if !ok {
		return true
	}
	return !t.Before(windowStart(thresholdHours))
}
