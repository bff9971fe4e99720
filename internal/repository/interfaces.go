package repository

import (
	"context"

	"patio/internal/dates"
	"patio/internal/domain"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// Upsert creates the user on first sign-in and refreshes profile fields
	// on subsequent ones
	Upsert(ctx context.Context, user *domain.User) error

	// UpdateTimezone changes a user's preferred IANA timezone
	UpdateTimezone(ctx context.Context, userID, timezone string) error
}

// TeamRepository defines the interface for team data operations
type TeamRepository interface {
	// Create creates a team and its creator's admin membership in one
	// transaction
	Create(ctx context.Context, team *domain.Team, creatorID string) error

	// GetByID retrieves a team by ID
	GetByID(ctx context.Context, id int64) (*domain.Team, error)

	// GetByJoinCode retrieves a team by its invite code
	GetByJoinCode(ctx context.Context, code string) (*domain.Team, error)

	// UpdateSettings persists name, timezone and poll-day changes
	UpdateSettings(ctx context.Context, team *domain.Team) error

	// ListForUser lists the teams the user belongs to
	ListForUser(ctx context.Context, userID string) ([]*domain.Team, error)
}

// MembershipRepository defines the interface for membership operations.
// Remove and UpdateRole re-check the admin count inside their transaction so
// two concurrent demotions cannot race past the application-level check.
type MembershipRepository interface {
	// Get retrieves a membership, nil when the user is not a member
	Get(ctx context.Context, teamID int64, userID string) (*domain.Membership, error)

	// Create adds a user to a team
	Create(ctx context.Context, m *domain.Membership) error

	// Remove deletes a membership, enforcing the last-admin invariant
	Remove(ctx context.Context, teamID int64, userID string) error

	// UpdateRole changes a member's role, enforcing the last-admin invariant
	UpdateRole(ctx context.Context, teamID int64, userID string, role domain.Role) error

	// ListMembers lists memberships joined with user display data
	ListMembers(ctx context.Context, teamID int64) ([]*domain.Member, error)

	// CountMembers returns the number of members in a team
	CountMembers(ctx context.Context, teamID int64) (int, error)
}

// MoodEntryRepository defines the interface for mood entry operations
type MoodEntryRepository interface {
	// Create inserts an entry. The unique index on (user, team, entry date)
	// is the authoritative duplicate guard.
	Create(ctx context.Context, entry *domain.MoodEntry) error

	// Update persists rating/comment/visibility/allowContact for an entry
	Update(ctx context.Context, entry *domain.MoodEntry) error

	// Delete removes an entry by ID
	Delete(ctx context.Context, id int64) error

	// GetByID retrieves an entry by ID, nil when absent
	GetByID(ctx context.Context, id int64) (*domain.MoodEntry, error)

	// GetForDate retrieves a user's entry for a team and date, nil when absent
	GetForDate(ctx context.Context, teamID int64, userID string, day dates.Date) (*domain.MoodEntry, error)

	// ListForRange lists a team's entries with entry dates in [from, to]
	ListForRange(ctx context.Context, teamID int64, from, to dates.Date) ([]*domain.MoodEntry, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	User       UserRepository
	Team       TeamRepository
	Membership MembershipRepository
	MoodEntry  MoodEntryRepository
}
