package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get database URL
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	// Get command
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}

	command := os.Args[1]

	// Connect to database
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS mood_entries CASCADE`,
		`DROP TABLE IF EXISTS team_members CASCADE`,
		`DROP TABLE IF EXISTS teams CASCADE`,
		`DROP TABLE IF EXISTS users CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		// Users are keyed by the Google subject claim
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(255) PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			picture TEXT NOT NULL DEFAULT '',
			timezone VARCHAR(64) NOT NULL DEFAULT 'UTC',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS teams (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			join_code VARCHAR(16) UNIQUE NOT NULL,
			timezone VARCHAR(64) NOT NULL DEFAULT 'UTC',
			poll_days JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS team_members (
			user_id VARCHAR(255) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			team_id BIGINT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			role VARCHAR(16) NOT NULL CHECK (role IN ('admin', 'member')),
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, team_id)
		)`,

		// One entry per user, team and day enforced at the database level
		`CREATE TABLE IF NOT EXISTS mood_entries (
			id BIGSERIAL PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			team_id BIGINT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			entry_date DATE NOT NULL,
			rating SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 5),
			comment TEXT NOT NULL DEFAULT '',
			visibility VARCHAR(16) NOT NULL DEFAULT 'public' CHECK (visibility IN ('public', 'private')),
			allow_contact BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, team_id, entry_date)
		)`,

		// Create indexes
		`CREATE INDEX IF NOT EXISTS idx_team_members_team_id ON team_members(team_id)`,
		`CREATE INDEX IF NOT EXISTS idx_mood_entries_team_date ON mood_entries(team_id, entry_date)`,
		`CREATE INDEX IF NOT EXISTS idx_mood_entries_user_id ON mood_entries(user_id)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
		fmt.Printf("  Created: %s\n", getTableName(query))
	}

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`INSERT INTO users (id, email, name, timezone) VALUES
			('seed-user-1', 'alice@example.com', 'Alice', 'Europe/Berlin'),
			('seed-user-2', 'bob@example.com', 'Bob', 'America/New_York'),
			('seed-user-3', 'carol@example.com', 'Carol', 'Asia/Bangkok')
			ON CONFLICT (id) DO NOTHING`,

		`INSERT INTO teams (name, join_code, timezone, poll_days) VALUES
			('Platform Team', 'A1B2C3D4', 'Europe/Berlin',
				'{"monday":true,"tuesday":true,"wednesday":true,"thursday":true,"friday":true,"saturday":false,"sunday":false}')
			ON CONFLICT (join_code) DO NOTHING`,

		`INSERT INTO team_members (user_id, team_id, role)
			SELECT 'seed-user-1', id, 'admin' FROM teams WHERE join_code = 'A1B2C3D4'
			ON CONFLICT (user_id, team_id) DO NOTHING`,

		`INSERT INTO team_members (user_id, team_id, role)
			SELECT 'seed-user-2', id, 'member' FROM teams WHERE join_code = 'A1B2C3D4'
			ON CONFLICT (user_id, team_id) DO NOTHING`,

		`INSERT INTO team_members (user_id, team_id, role)
			SELECT 'seed-user-3', id, 'member' FROM teams WHERE join_code = 'A1B2C3D4'
			ON CONFLICT (user_id, team_id) DO NOTHING`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to seed data: %w", err)
		}
	}

	fmt.Println("  Seeded 3 users and 1 team")

	return nil
}

func getTableName(query string) string {
	if len(query) > 50 {
		return query[:50] + "..."
	}
	return query
}
