package domain

import (
	"time"

	"patio/internal/dates"
)

// Visibility controls who can read an entry's comment
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is a known visibility
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Rating bounds for a mood entry
const (
	MinRating = 1
	MaxRating = 5
)

// MoodEntry represents one user's submitted mood for one team on one calendar
// date. At most one entry exists per (user, team, entry date).
type MoodEntry struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"user_id"`
	TeamID       int64      `json:"team_id"`
	Rating       int        `json:"rating"`
	Comment      string     `json:"comment,omitempty"`
	Visibility   Visibility `json:"visibility"`
	AllowContact bool       `json:"allow_contact"`
	EntryDate    dates.Date `json:"entry_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SubmitMoodRequest is the payload for creating a mood entry
type SubmitMoodRequest struct {
	Rating       int        `json:"rating"`
	Comment      string     `json:"comment"`
	Visibility   Visibility `json:"visibility"`
	AllowContact bool       `json:"allow_contact"`
	EntryDate    string     `json:"entry_date"` // YYYY-MM-DD; empty means the team's last valid poll date
}

// UpdateMoodRequest is the payload for editing an existing entry. The entry
// date, team and owner are immutable; only these fields may change.
type UpdateMoodRequest struct {
	Rating       int        `json:"rating"`
	Comment      string     `json:"comment"`
	Visibility   Visibility `json:"visibility"`
	AllowContact bool       `json:"allow_contact"`
}
