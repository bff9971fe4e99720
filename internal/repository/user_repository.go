package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"patio/internal/domain"
	"patio/pkg/database"
)

type PostgresUserRepository struct {
	db *database.PostgresDB
}

func NewUserRepository(db *database.PostgresDB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	query := `
		SELECT id, email, name, picture, timezone, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Picture,
		&user.Timezone,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// Upsert creates the user on first sign-in and refreshes profile fields after
func (r *PostgresUserRepository) Upsert(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, name, picture, timezone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email,
		    name = EXCLUDED.name,
		    picture = EXCLUDED.picture,
		    updated_at = now()
		RETURNING timezone, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Picture,
		user.Timezone,
	).Scan(&user.Timezone, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

// UpdateTimezone changes a user's preferred IANA timezone
func (r *PostgresUserRepository) UpdateTimezone(ctx context.Context, userID, timezone string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET timezone = $2, updated_at = now() WHERE id = $1`,
		userID, timezone)
	if err != nil {
		return fmt.Errorf("failed to update timezone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}
