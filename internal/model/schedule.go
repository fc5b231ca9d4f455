package model

import (
	"strconv"
	"strings"
	"time"
)

// DateOnly truncates t to its calendar date in UTC.  All date
// comparisons in the booking rules go through this so that the time
// zone of a scanned DATETIME can never skew a same-day check.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether a and b fall on the same UTC calendar date.
func SameDate(a, b time.Time) bool { return DateOnly(a).Equal(DateOnly(b)) }

// IsPastSlot reports whether the occurrence at date+startAt is not
// strictly after now.  The comparison is date-first: an earlier date is
// always past and a later date never is; only on the same date does the
// time of day decide.  Both the create path (slot must be in the
// future) and the cancel path (slot must not be past) share this
// predicate.
func IsPastSlot(date time.Time, startAt string, now time.Time) bool {
	d, n := DateOnly(date), DateOnly(now)
	if d.Before(n) {
		return true
	}
	if d.After(n) {
		return false
	}
	slot := clockSeconds(startAt)
	cur := now.UTC().Hour()*3600 + now.UTC().Minute()*60 + now.UTC().Second()
	return slot <= cur
}

// clockSeconds parses a "15:04" or "15:04:05" time-of-day string into
// seconds since midnight.  Malformed fields count as zero, which makes
// an unparsable time sort to the start of the day.
func clockSeconds(s string) int {
	parts := strings.Split(s, ":")
	total := 0
	for i := 0; i < 3; i++ {
		v := 0
		if i < len(parts) {
			v, _ = strconv.Atoi(parts[i])
		}
		total = total*60 + v
	}
	return total
}
