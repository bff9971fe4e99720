// Package moodrules enforces the domain invariants around mood entries and
// team membership. Everything here is pure validation over already-fetched
// rows; persistence happens elsewhere, after an Ok result.
package moodrules

import (
	"fmt"

	"patio/internal/dates"
	"patio/internal/domain"
	"patio/internal/poll"
)

// Reason identifies why a submission was rejected
type Reason string

const (
	ReasonInvalidRating      Reason = "invalid_rating"
	ReasonNotAMember         Reason = "not_a_member"
	ReasonNotAPollDay        Reason = "not_a_poll_day"
	ReasonPredatesTeam       Reason = "predates_team"
	ReasonFutureDate         Reason = "future_date"
	ReasonDuplicateEntry     Reason = "duplicate_entry"
	ReasonNotFound           Reason = "not_found"
	ReasonNotOwner           Reason = "not_owner"
	ReasonLastAdminViolation Reason = "last_admin_violation"
)

// Rejection is an expected business-rule rejection returned as a value
type Rejection struct {
	Reason  Reason
	Message string
}

// Error implements the error interface
func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Reason, r.Message)
}

func reject(reason Reason, format string, args ...interface{}) *Rejection {
	return &Rejection{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Submission is the validated shape of a create or update attempt
type Submission struct {
	UserID    string
	TeamID    int64
	Rating    int
	EntryDate dates.Date
}

// ValidateCreate checks a first-time submission for a date. The membership and
// existing entry are the caller's rows for (user, team, entry date); existing
// must be nil for a create to pass.
func ValidateCreate(sub Submission, membership *domain.Membership, team *domain.Team, existing *domain.MoodEntry, today dates.Date) error {
	if err := validateCommon(sub, membership, team, today); err != nil {
		return err
	}
	if existing != nil {
		return reject(ReasonDuplicateEntry, "an entry for %s already exists", sub.EntryDate)
	}
	return nil
}

// ValidateUpdate checks an edit of an existing entry. Only rating, comment,
// visibility and allowContact may change; the entry date, team and owner are
// immutable, so the common date checks run against the stored entry date.
func ValidateUpdate(sub Submission, membership *domain.Membership, team *domain.Team, existing *domain.MoodEntry, today dates.Date) error {
	if existing == nil {
		return reject(ReasonNotFound, "no entry found to update")
	}
	if existing.UserID != sub.UserID {
		return reject(ReasonNotOwner, "entry belongs to another user")
	}
	frozen := sub
	frozen.TeamID = existing.TeamID
	frozen.EntryDate = existing.EntryDate
	return validateCommon(frozen, membership, team, today)
}

func validateCommon(sub Submission, membership *domain.Membership, team *domain.Team, today dates.Date) error {
	if sub.Rating < domain.MinRating || sub.Rating > domain.MaxRating {
		return reject(ReasonInvalidRating, "rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	}
	if membership == nil || membership.TeamID != sub.TeamID || membership.UserID != sub.UserID {
		return reject(ReasonNotAMember, "user is not a member of this team")
	}
	if !poll.IsPollDay(team.PollDays, sub.EntryDate) {
		return reject(ReasonNotAPollDay, "%s is not a poll day for this team", sub.EntryDate)
	}
	// The creation-day boundary is observed in the team's own timezone, not
	// wherever the server happens to run.
	teamCreated := dates.FromTimeIn(team.CreatedAt, team.Timezone)
	if sub.EntryDate.Before(teamCreated) {
		return reject(ReasonPredatesTeam, "entry date %s predates the team", sub.EntryDate)
	}
	if !poll.CanSubmitOn(sub.EntryDate, today) {
		return reject(ReasonFutureDate, "entry date %s is in the future", sub.EntryDate)
	}
	return nil
}

// ValidateDelete checks that the caller owns the entry being removed
func ValidateDelete(userID string, existing *domain.MoodEntry) error {
	if existing == nil {
		return reject(ReasonNotFound, "no entry found to delete")
	}
	if existing.UserID != userID {
		return reject(ReasonNotOwner, "entry belongs to another user")
	}
	return nil
}

// CanRemoveAdmin reports whether a member may be removed or demoted without
// leaving the team adminless. Removal of a plain member is always allowed.
func CanRemoveAdmin(role domain.Role, adminCount int) bool {
	if role != domain.RoleAdmin {
		return true
	}
	return adminCount > 1
}

// CheckAdminInvariant returns a LastAdminViolation rejection when removing or
// demoting the given member would leave the team without an admin.
func CheckAdminInvariant(role domain.Role, adminCount int) error {
	if !CanRemoveAdmin(role, adminCount) {
		return reject(ReasonLastAdminViolation, "a team must retain at least one admin")
	}
	return nil
}
