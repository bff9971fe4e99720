package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"patio/internal/domain"
	"patio/pkg/database"
)

type PostgresTeamRepository struct {
	db *database.PostgresDB
}

func NewTeamRepository(db *database.PostgresDB) *PostgresTeamRepository {
	return &PostgresTeamRepository{db: db}
}

func scanTeam(row pgx.Row) (*domain.Team, error) {
	var team domain.Team
	var pollDays []byte

	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.JoinCode,
		&team.Timezone,
		&pollDays,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(pollDays, &team.PollDays); err != nil {
		return nil, fmt.Errorf("failed to decode poll days: %w", err)
	}
	return &team, nil
}

// Create creates a team and the creator's admin membership in one transaction
func (r *PostgresTeamRepository) Create(ctx context.Context, team *domain.Team, creatorID string) error {
	pollDays, err := json.Marshal(team.PollDays)
	if err != nil {
		return fmt.Errorf("failed to encode poll days: %w", err)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO teams (name, join_code, timezone, poll_days)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, team.Name, team.JoinCode, team.Timezone, pollDays).Scan(
		&team.ID, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO team_members (team_id, user_id, role)
		VALUES ($1, $2, $3)
	`, team.ID, creatorID, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to create admin membership: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a team by ID
func (r *PostgresTeamRepository) GetByID(ctx context.Context, id int64) (*domain.Team, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, join_code, timezone, poll_days, created_at, updated_at
		FROM teams
		WHERE id = $1
	`, id)

	team, err := scanTeam(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

// GetByJoinCode retrieves a team by its invite code
func (r *PostgresTeamRepository) GetByJoinCode(ctx context.Context, code string) (*domain.Team, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, join_code, timezone, poll_days, created_at, updated_at
		FROM teams
		WHERE join_code = $1
	`, code)

	team, err := scanTeam(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get team by code: %w", err)
	}
	return team, nil
}

// UpdateSettings persists name, timezone and poll-day changes
func (r *PostgresTeamRepository) UpdateSettings(ctx context.Context, team *domain.Team) error {
	pollDays, err := json.Marshal(team.PollDays)
	if err != nil {
		return fmt.Errorf("failed to encode poll days: %w", err)
	}

	err = r.db.Pool.QueryRow(ctx, `
		UPDATE teams
		SET name = $2, timezone = $3, poll_days = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, team.ID, team.Name, team.Timezone, pollDays).Scan(&team.UpdatedAt)

	if err == pgx.ErrNoRows {
		return fmt.Errorf("team %d not found", team.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update team settings: %w", err)
	}
	return nil
}

// ListForUser lists the teams the user belongs to, oldest first
func (r *PostgresTeamRepository) ListForUser(ctx context.Context, userID string) ([]*domain.Team, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT t.id, t.name, t.join_code, t.timezone, t.poll_days, t.created_at, t.updated_at
		FROM teams t
		JOIN team_members m ON m.team_id = t.id
		WHERE m.user_id = $1
		ORDER BY t.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*domain.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}
