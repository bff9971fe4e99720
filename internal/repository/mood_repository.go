package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"patio/internal/dates"
	"patio/internal/domain"
	"patio/pkg/database"
)

// ErrDuplicateEntry is returned when the unique index on
// (user_id, team_id, entry_date) rejects an insert. The index, not the
// application-level pre-check, is what makes concurrent submissions safe.
var ErrDuplicateEntry = errors.New("an entry for this date already exists")

const uniqueViolation = "23505"

type PostgresMoodEntryRepository struct {
	db *database.PostgresDB
}

func NewMoodEntryRepository(db *database.PostgresDB) *PostgresMoodEntryRepository {
	return &PostgresMoodEntryRepository{db: db}
}

func scanEntry(row pgx.Row) (*domain.MoodEntry, error) {
	var e domain.MoodEntry
	var entryDate time.Time

	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.TeamID,
		&e.Rating,
		&e.Comment,
		&e.Visibility,
		&e.AllowContact,
		&entryDate,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.EntryDate = dates.FromTime(entryDate, time.UTC)
	return &e, nil
}

const entryColumns = `id, user_id, team_id, rating, comment, visibility, allow_contact, entry_date, created_at, updated_at`

// Create inserts an entry, mapping unique violations to ErrDuplicateEntry
func (r *PostgresMoodEntryRepository) Create(ctx context.Context, entry *domain.MoodEntry) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO mood_entries (user_id, team_id, rating, comment, visibility, allow_contact, entry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`,
		entry.UserID,
		entry.TeamID,
		entry.Rating,
		entry.Comment,
		entry.Visibility,
		entry.AllowContact,
		entry.EntryDate.Time(),
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create mood entry: %w", err)
	}

	return nil
}

// Update persists the mutable fields of an entry. Entry date, team and owner
// never change.
func (r *PostgresMoodEntryRepository) Update(ctx context.Context, entry *domain.MoodEntry) error {
	err := r.db.Pool.QueryRow(ctx, `
		UPDATE mood_entries
		SET rating = $2, comment = $3, visibility = $4, allow_contact = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`,
		entry.ID,
		entry.Rating,
		entry.Comment,
		entry.Visibility,
		entry.AllowContact,
	).Scan(&entry.UpdatedAt)

	if err == pgx.ErrNoRows {
		return fmt.Errorf("mood entry %d not found", entry.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update mood entry: %w", err)
	}
	return nil
}

// Delete removes an entry by ID
func (r *PostgresMoodEntryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM mood_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete mood entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mood entry %d not found", id)
	}
	return nil
}

// GetByID retrieves an entry by ID, nil when absent
func (r *PostgresMoodEntryRepository) GetByID(ctx context.Context, id int64) (*domain.MoodEntry, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM mood_entries WHERE id = $1`, id)

	entry, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get mood entry: %w", err)
	}
	return entry, nil
}

// GetForDate retrieves a user's entry for a team and date, nil when absent
func (r *PostgresMoodEntryRepository) GetForDate(ctx context.Context, teamID int64, userID string, day dates.Date) (*domain.MoodEntry, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM mood_entries
		 WHERE team_id = $1 AND user_id = $2 AND entry_date = $3`,
		teamID, userID, day.Time())

	entry, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get mood entry for date: %w", err)
	}
	return entry, nil
}

// ListForRange lists a team's entries with entry dates in [from, to],
// ordered by entry date then creation time
func (r *PostgresMoodEntryRepository) ListForRange(ctx context.Context, teamID int64, from, to dates.Date) ([]*domain.MoodEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+entryColumns+` FROM mood_entries
		 WHERE team_id = $1 AND entry_date >= $2 AND entry_date <= $3
		 ORDER BY entry_date, created_at`,
		teamID, from.Time(), to.Time())
	if err != nil {
		return nil, fmt.Errorf("failed to list mood entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.MoodEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mood entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
