package migrations_test

import (
	"context"
	"testing"

	"github.com/playperu/superadmin/internal/database"
	"github.com/playperu/superadmin/internal/migrations"
)

func TestMigrations(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	want := []string{"admins", "admin_sessions", "games", "sessions"}

	for _, table := range want {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.Run(db); err != nil {
		t.Fatalf("second run (should be no-op): %v", err)
	}
}

func TestSessionStatusConstraint(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	if _, err := db.Exec(`INSERT INTO games (id, game_id, name, server_url, created_at)
		VALUES ('g1', 'quiz', 'Quiz', 'http://g', '2025-01-01T00:00:00.000Z')`); err != nil {
		t.Fatalf("inserting game: %v", err)
	}
	_, err = db.Exec(`INSERT INTO sessions (id, game_ref, name, status, admin_name, admin_pin,
		player_link, admin_link, created_at, updated_at)
		VALUES ('s1', 'g1', 'S1', 'PAUSED', 'Bob', '1234', 'p', 'a',
		'2025-01-01T00:00:00.000Z', '2025-01-01T00:00:00.000Z')`)
	if err == nil {
		t.Fatal("expected status check constraint to reject PAUSED")
	}
}
