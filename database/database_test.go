package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	migrations, err := fs.Sub(EmbeddedMigrations, "migrations")
	if err != nil {
		t.Fatalf("failed to open embedded migrations: %v", err)
	}
	db, err := New(filepath.Join(t.TempDir(), "test.db"), migrations)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationsCreateSchema(t *testing.T) {
	db := newTestDB(t)

	tables := []string{
		"users", "sessions", "friendships", "posts",
		"post_likes", "comments", "chat_rooms", "chat_messages",
		"notifications", "schema_migrations",
	}
	for _, table := range tables {
		var name string
		err := db.Conn.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)

	migrations, err := fs.Sub(EmbeddedMigrations, "migrations")
	if err != nil {
		t.Fatalf("failed to open embedded migrations: %v", err)
	}
	// New already migrated once; a second pass must be a clean no-op.
	if err := db.Migrate(migrations); err != nil {
		t.Fatalf("re-running migrations failed: %v", err)
	}
}

func TestForeignKeysAreEnforced(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Conn.Exec(
		`INSERT INTO notifications (recipient_id, kind, created_at) VALUES ('ghost', 'like', 0)`,
	)
	if err == nil {
		t.Fatal("insert with dangling recipient_id should fail")
	}
}

func TestWithTxCommitsOnNil(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, username, password_hash) VALUES ('u1', 'alice', 'x')`)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}

	var count int
	if err := db.Conn.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("users = %d, want 1", count)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, username, password_hash) VALUES ('u1', 'alice', 'x')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want boom", err)
	}

	var count int
	if err := db.Conn.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("users = %d after rollback, want 0", count)
	}
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic should propagate out of WithTx")
			}
		}()
		_ = WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO users (id, username, password_hash) VALUES ('u1', 'alice', 'x')`); err != nil {
				return err
			}
			panic("boom")
		})
	}()

	var count int
	if err := db.Conn.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("users = %d after panic, want 0", count)
	}
}

func TestSplitStatementsRespectsQuotes(t *testing.T) {
	stmts := splitStatements(`
		INSERT INTO t VALUES ('a;b');
		-- trailing comment
		UPDATE t SET x = 1;
	`)
	if len(stmts) != 2 {
		t.Fatalf("got %d statements, want 2: %q", len(stmts), stmts)
	}
}
