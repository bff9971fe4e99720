// Package poll decides which calendar dates a team accepts mood entries on.
package poll

import (
	"errors"

	"patio/internal/dates"
	"patio/internal/domain"
)

// ErrNoPollDayConfigured is returned when a team's poll-day mask has no
// enabled day, so no valid poll date exists.
var ErrNoPollDayConfigured = errors.New("team has no poll day configured")

// maxBackwardWalk caps the last-valid-date search. Seven steps reach every
// weekday; the larger cap guards against a corrupted mask.
const maxBackwardWalk = 366

// IsPollDay reports whether the team polls on the given date
func IsPollDay(mask domain.PollDays, date dates.Date) bool {
	return mask.Enabled(date.Weekday())
}

// CanSubmitOn reports whether date is submittable relative to today.
// Future dates are never submittable; past dates are, subject to the
// entry-level invariants.
func CanSubmitOn(date, today dates.Date) bool {
	return !date.After(today)
}

// LastValidDate returns the most recent poll day on or before today. It never
// searches forward. An all-false mask yields ErrNoPollDayConfigured instead of
// walking forever.
func LastValidDate(mask domain.PollDays, today dates.Date) (dates.Date, error) {
	if !mask.Any() {
		return dates.Date{}, ErrNoPollDayConfigured
	}

	date := today
	for i := 0; i < maxBackwardWalk; i++ {
		if IsPollDay(mask, date) {
			return date, nil
		}
		date = date.AddDays(-1)
	}

	// Unreachable with a well-formed mask, kept as a hard stop.
	return dates.Date{}, ErrNoPollDayConfigured
}
