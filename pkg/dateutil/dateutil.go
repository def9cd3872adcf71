// Package dateutil provides the DateStamp identity and the rolling
// seven-day window used by both pipelines.
package dateutil

import (
	"regexp"
	"time"
)

var dateStampPattern = regexp.MustCompile(`^\d{8}$`)

// DateStamp is the YYYYMMDD identity of a calendar day. It is constructed
// only from internally-generated strings (today's date, or a date derived
// by walking back from today), so a malformed value indicates a logic
// error rather than bad external input.
type DateStamp string

// NewDateStamp validates and wraps a YYYYMMDD string.
//
// Panics if date does not match ^\d{8}$: a DateStamp is only ever built
// from dates this package itself formats, so a corrupted value here means
// the program has a bug, not that it received bad input (spec §7).
func NewDateStamp(date string) DateStamp {
	if !dateStampPattern.MatchString(date) {
		panic("dateutil: corrupted DateStamp " + date)
	}

	return DateStamp(date)
}

// String returns the YYYYMMDD representation.
func (d DateStamp) String() string {
	return string(d)
}

// Today returns the current UTC date as a DateStamp.
func Today() DateStamp {
	return fromTime(time.Now().UTC())
}

// LastSevenDays returns today and the six preceding UTC days, oldest
// first.
func LastSevenDays() []DateStamp {
	today := time.Now().UTC()
	days := make([]DateStamp, 7)

	for i := range days {
		days[6-i] = fromTime(today.AddDate(0, 0, -i))
	}

	return days
}

func fromTime(t time.Time) DateStamp {
	return NewDateStamp(t.Format("20060102"))
}
