package repository

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/denizoku/pulse/database"
	"github.com/denizoku/pulse/models"
)

// newTestDB opens a throwaway SQLite database with the full schema applied.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		t.Fatalf("failed to open embedded migrations: %v", err)
	}

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), migrations)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// createTestUser inserts a user and returns it.
func createTestUser(t *testing.T, db *database.DB, username string) *models.User {
	t.Helper()

	repo := NewSQLiteUserRepo(db.Conn)
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "x",
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %s: %v", username, err)
	}
	return user
}
