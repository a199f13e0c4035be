package core

import (
	"time"
)

// Now returns the current UTC time truncated to microseconds, the finest
// precision both PostgreSQL and SQLite round-trip without loss.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// DayStamp formats t as the calendar day used in snapshot file names.
func DayStamp(t time.Time) string {
	return t.Format("2006-01-02")
}
