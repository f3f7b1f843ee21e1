// Package clock computes quota window boundaries. All window math is
// done in UTC so resets are deterministic across deployments.
package clock

import "time"

// WindowStart returns the most recent instant at resetHour:00:00 UTC
// that is less than or equal to now. When now falls before today's
// aligned instant, yesterday's is returned. The boundary is
// inclusive: a record whose last_reset equals WindowStart(now) is
// current, not stale.
func WindowStart(now time.Time, resetHour int) time.Time {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), resetHour, 0, 0, 0, time.UTC)
	if start.After(now) {
		start = start.AddDate(0, 0, -1)
	}
	return start
}

// IsStale reports whether a record reset at lastReset belongs to an
// earlier window than now's.
func IsStale(lastReset, now time.Time, resetHour int) bool {
	return lastReset.Before(WindowStart(now, resetHour))
}
