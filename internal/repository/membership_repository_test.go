package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"patio/internal/domain"
	"patio/pkg/database"
)

// setupTestDB connects to the database named by TEST_DATABASE_URL. The schema
// from cmd/migrate must already be present. Tests needing a live database are
// skipped when the variable is unset.
func setupTestDB(t *testing.T) *database.PostgresDB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, url)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func seedTeamWithAdmins(t *testing.T, db *database.PostgresDB, admins ...string) int64 {
	t.Helper()
	ctx := context.Background()

	var teamID int64
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO teams (name, join_code, timezone, poll_days)
		VALUES ('concurrency test team', $1, 'UTC', '{}')
		RETURNING id
	`, fmt.Sprintf("T%X", time.Now().UnixNano()&0xFFFFFFF)).Scan(&teamID)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM teams WHERE id = $1`, teamID)
	})

	for _, userID := range admins {
		_, err := db.Pool.Exec(ctx, `
			INSERT INTO users (id, email, name)
			VALUES ($1, $1 || '@example.com', $1)
			ON CONFLICT (id) DO NOTHING
		`, userID)
		require.NoError(t, err)

		_, err = db.Pool.Exec(ctx, `
			INSERT INTO team_members (team_id, user_id, role)
			VALUES ($1, $2, 'admin')
		`, teamID, userID)
		require.NoError(t, err)
	}
	return teamID
}

// Two admins demoting each other at the same time must not both succeed: the
// team row lock forces one transaction to wait and re-read the committed
// admin count, leaving exactly one admin standing.
func TestUpdateRole_ConcurrentDemotionsKeepOneAdmin(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMembershipRepository(db)
	teamID := seedTeamWithAdmins(t, db, "admin-a", "admin-b")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []string{"admin-a", "admin-b"} {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			errs[i] = repo.UpdateRole(context.Background(), teamID, userID, domain.RoleMember)
		}(i, userID)
	}
	wg.Wait()

	var remaining int
	err := db.Pool.QueryRow(context.Background(), `
		SELECT count(*) FROM team_members WHERE team_id = $1 AND role = 'admin'
	`, teamID).Scan(&remaining)
	require.NoError(t, err)
	require.GreaterOrEqual(t, remaining, 1)

	failures := 0
	for _, e := range errs {
		if e != nil {
			require.ErrorIs(t, e, ErrLastAdmin)
			failures++
		}
	}
	require.Equal(t, 1, failures)
}

func TestRemove_ConcurrentAdminLeavesKeepOneAdmin(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMembershipRepository(db)
	teamID := seedTeamWithAdmins(t, db, "admin-c", "admin-d")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []string{"admin-c", "admin-d"} {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			errs[i] = repo.Remove(context.Background(), teamID, userID)
		}(i, userID)
	}
	wg.Wait()

	var remaining int
	err := db.Pool.QueryRow(context.Background(), `
		SELECT count(*) FROM team_members WHERE team_id = $1 AND role = 'admin'
	`, teamID).Scan(&remaining)
	require.NoError(t, err)
	require.Equal(t, 1, remaining)
}

func TestRemove_LastAdminRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMembershipRepository(db)
	teamID := seedTeamWithAdmins(t, db, "solo-admin")

	err := repo.Remove(context.Background(), teamID, "solo-admin")
	require.ErrorIs(t, err, ErrLastAdmin)
}

func TestUpdateRole_UnknownMember(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMembershipRepository(db)
	teamID := seedTeamWithAdmins(t, db, "admin-e")

	err := repo.UpdateRole(context.Background(), teamID, "nobody", domain.RoleAdmin)
	require.ErrorIs(t, err, ErrMembershipNotFound)
}
