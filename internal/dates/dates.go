// Package dates provides timezone-aware civil calendar dates. A Date carries
// no time of day and no location; only Today and FromTime consult a timezone.
package dates

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDateFormat is returned when a date string is not strict YYYY-MM-DD
var ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")

// Layout is the wire format for calendar dates
const Layout = "2006-01-02"

// Date is a civil calendar date
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// weekdayNames maps time.Weekday to lowercase English names,
// independent of locale
var weekdayNames = map[time.Weekday]string{
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
	time.Sunday:    "sunday",
}

// Today returns the current date as perceived in the given IANA timezone.
// An empty timezone means UTC.
func Today(timezone string) (Date, error) {
	loc := time.UTC
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return Date{}, fmt.Errorf("unknown timezone %q: %w", timezone, err)
		}
	}
	return FromTime(time.Now(), loc), nil
}

// FromTime truncates an instant to the calendar date observed in loc
func FromTime(t time.Time, loc *time.Location) Date {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// FromTimeIn truncates an instant to the calendar date observed in the given
// IANA timezone. An empty or unknown zone falls back to UTC so the result
// never depends on the server's local zone.
func FromTimeIn(t time.Time, timezone string) Date {
	loc := time.UTC
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}
	return FromTime(t, loc)
}

// Parse parses a strict YYYY-MM-DD string
func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, ErrInvalidDateFormat
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}, nil
}

// Time returns the date at midnight UTC, used for date arithmetic
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero date
func (d Date) IsZero() bool {
	return d == Date{}
}

// String renders the date as YYYY-MM-DD
func (d Date) String() string {
	return d.Time().Format(Layout)
}

// Weekday returns the lowercase English weekday name for the date
func (d Date) Weekday() string {
	return weekdayNames[d.Time().Weekday()]
}

// AddDays returns the date shifted by n calendar days (n may be negative)
func (d Date) AddDays(n int) Date {
	return FromTime(d.Time().AddDate(0, 0, n), time.UTC)
}

// Compare returns -1 if d is before other, 0 if equal, 1 if after
func (d Date) Compare(other Date) int {
	return d.Time().Compare(other.Time())
}

// Before reports whether d is strictly before other
func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

// After reports whether d is strictly after other
func (d Date) After(other Date) bool {
	return d.Compare(other) > 0
}

// Equal reports whether d and other are the same calendar date
func (d Date) Equal(other Date) bool {
	return d == other
}

// DaysBetween returns the number of calendar days from d to other
// (positive when other is later)
func (d Date) DaysBetween(other Date) int {
	return int(other.Time().Sub(d.Time()) / (24 * time.Hour))
}

// MarshalJSON renders the date as a "YYYY-MM-DD" JSON string
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON parses a "YYYY-MM-DD" JSON string
func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return ErrInvalidDateFormat
	}
	parsed, err := Parse(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
