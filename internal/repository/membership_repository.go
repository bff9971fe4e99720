package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"patio/internal/domain"
	"patio/internal/moodrules"
	"patio/pkg/database"
)

// ErrLastAdmin is returned when removing or demoting a member would leave the
// team without an admin. The check runs inside the same transaction as the
// write, so two concurrent demotions cannot both pass it.
var ErrLastAdmin = errors.New("team would be left without an admin")

// ErrMembershipNotFound is returned when the targeted membership does not exist
var ErrMembershipNotFound = errors.New("membership not found")

type PostgresMembershipRepository struct {
	db *database.PostgresDB
}

func NewMembershipRepository(db *database.PostgresDB) *PostgresMembershipRepository {
	return &PostgresMembershipRepository{db: db}
}

// Get retrieves a membership, nil when the user is not a member
func (r *PostgresMembershipRepository) Get(ctx context.Context, teamID int64, userID string) (*domain.Membership, error) {
	var m domain.Membership
	err := r.db.Pool.QueryRow(ctx, `
		SELECT team_id, user_id, role, joined_at
		FROM team_members
		WHERE team_id = $1 AND user_id = $2
	`, teamID, userID).Scan(&m.TeamID, &m.UserID, &m.Role, &m.JoinedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

// Create adds a user to a team
func (r *PostgresMembershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ($1, $2, $3)
		RETURNING joined_at
	`, m.TeamID, m.UserID, m.Role).Scan(&m.JoinedAt)

	if err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// lockMembership serialises membership writes on a team by locking the team
// row FOR UPDATE, then reads the target's role and the team's admin count.
// Locking only the target member's row would let two concurrent demotions of
// two different admins each count the other as still present; the team-level
// lock forces the second transaction to wait and re-read the committed count.
func lockMembership(ctx context.Context, tx pgx.Tx, teamID int64, userID string) (domain.Role, int, error) {
	var lockedID int64
	err := tx.QueryRow(ctx, `
		SELECT id FROM teams WHERE id = $1 FOR UPDATE
	`, teamID).Scan(&lockedID)
	if err == pgx.ErrNoRows {
		return "", 0, ErrMembershipNotFound
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to lock team: %w", err)
	}

	var role domain.Role
	err = tx.QueryRow(ctx, `
		SELECT role FROM team_members
		WHERE team_id = $1 AND user_id = $2
	`, teamID, userID).Scan(&role)
	if err == pgx.ErrNoRows {
		return "", 0, ErrMembershipNotFound
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to read membership: %w", err)
	}

	var adminCount int
	err = tx.QueryRow(ctx, `
		SELECT count(*) FROM team_members
		WHERE team_id = $1 AND role = $2
	`, teamID, domain.RoleAdmin).Scan(&adminCount)
	if err != nil {
		return "", 0, fmt.Errorf("failed to count admins: %w", err)
	}

	return role, adminCount, nil
}

// Remove deletes a membership, enforcing the last-admin invariant in the same
// transaction
func (r *PostgresMembershipRepository) Remove(ctx context.Context, teamID int64, userID string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	role, adminCount, err := lockMembership(ctx, tx, teamID, userID)
	if err != nil {
		return err
	}
	if !moodrules.CanRemoveAdmin(role, adminCount) {
		return ErrLastAdmin
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM team_members WHERE team_id = $1 AND user_id = $2
	`, teamID, userID); err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}

	return tx.Commit(ctx)
}

// UpdateRole changes a member's role, enforcing the last-admin invariant when
// demoting
func (r *PostgresMembershipRepository) UpdateRole(ctx context.Context, teamID int64, userID string, role domain.Role) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, adminCount, err := lockMembership(ctx, tx, teamID, userID)
	if err != nil {
		return err
	}
	if role != domain.RoleAdmin && !moodrules.CanRemoveAdmin(current, adminCount) {
		return ErrLastAdmin
	}

	if _, err := tx.Exec(ctx, `
		UPDATE team_members SET role = $3
		WHERE team_id = $1 AND user_id = $2
	`, teamID, userID, role); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	return tx.Commit(ctx)
}

// ListMembers lists memberships joined with user display data
func (r *PostgresMembershipRepository) ListMembers(ctx context.Context, teamID int64) ([]*domain.Member, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT m.user_id, u.name, u.email, u.picture, m.role, m.joined_at
		FROM team_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY m.joined_at
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.Picture, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

// CountMembers returns the number of members in a team
func (r *PostgresMembershipRepository) CountMembers(ctx context.Context, teamID int64) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT count(*) FROM team_members WHERE team_id = $1
	`, teamID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}
