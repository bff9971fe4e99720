package domain

import "time"

// Role is a member's role within a team
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// PollDays is a team's per-weekday polling mask. All seven days are always
// present; an all-false mask is storable but makes poll-date resolution fail
// with an explicit configuration error.
type PollDays struct {
	Monday    bool `json:"monday"`
	Tuesday   bool `json:"tuesday"`
	Wednesday bool `json:"wednesday"`
	Thursday  bool `json:"thursday"`
	Friday    bool `json:"friday"`
	Saturday  bool `json:"saturday"`
	Sunday    bool `json:"sunday"`
}

// DefaultPollDays polls on weekdays only
func DefaultPollDays() PollDays {
	return PollDays{Monday: true, Tuesday: true, Wednesday: true, Thursday: true, Friday: true}
}

// Enabled reports whether the lowercase weekday name is a poll day
func (p PollDays) Enabled(weekday string) bool {
	switch weekday {
	case "monday":
		return p.Monday
	case "tuesday":
		return p.Tuesday
	case "wednesday":
		return p.Wednesday
	case "thursday":
		return p.Thursday
	case "friday":
		return p.Friday
	case "saturday":
		return p.Saturday
	case "sunday":
		return p.Sunday
	default:
		return false
	}
}

// Any reports whether at least one day is enabled
func (p PollDays) Any() bool {
	return p.Monday || p.Tuesday || p.Wednesday || p.Thursday || p.Friday || p.Saturday || p.Sunday
}

// Team represents a mood-tracking team
type Team struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	JoinCode  string    `json:"join_code,omitempty"`
	Timezone  string    `json:"timezone"`
	PollDays  PollDays  `json:"poll_days"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership links a user to a team with a role
type Membership struct {
	TeamID   int64     `json:"team_id"`
	UserID   string    `json:"user_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Member is a membership joined with the user's display data for listings
type Member struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Picture  string    `json:"picture,omitempty"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// CreateTeamRequest is the payload for creating a team
type CreateTeamRequest struct {
	Name     string    `json:"name"`
	Timezone string    `json:"timezone"`
	PollDays *PollDays `json:"poll_days,omitempty"`
}

// UpdateTeamSettingsRequest is the payload for a team settings update.
// Nil fields are left unchanged.
type UpdateTeamSettingsRequest struct {
	Name     *string   `json:"name,omitempty"`
	Timezone *string   `json:"timezone,omitempty"`
	PollDays *PollDays `json:"poll_days,omitempty"`
}

// JoinTeamRequest is the payload for joining a team by invite code
type JoinTeamRequest struct {
	Code string `json:"code"`
}

// UpdateRoleRequest is the payload for changing a member's role
type UpdateRoleRequest struct {
	Role Role `json:"role"`
}
