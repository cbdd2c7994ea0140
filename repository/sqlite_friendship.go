package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/denizoku/pulse/database"
	"github.com/denizoku/pulse/models"
	"github.com/denizoku/pulse/pkg"
)

type sqliteFriendshipRepo struct {
	db database.TxQuerier
}

// NewSQLiteFriendshipRepo returns the SQLite-backed FriendshipRepository.
func NewSQLiteFriendshipRepo(db database.TxQuerier) FriendshipRepository {
	return &sqliteFriendshipRepo{db: db}
}

func (r *sqliteFriendshipRepo) Create(ctx context.Context, friendship *models.Friendship) error {
	now := time.Now().UTC()
	friendship.CreatedAt = now
	friendship.UpdatedAt = now

	query := `
		INSERT INTO friendships (id, user_id, friend_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		friendship.ID,
		friendship.UserID,
		friendship.FriendID,
		friendship.Status,
		friendship.CreatedAt,
		friendship.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: friend request already exists", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

func (r *sqliteFriendshipRepo) GetByID(ctx context.Context, id string) (*models.Friendship, error) {
	query := `
		SELECT id, user_id, friend_id, status, created_at, updated_at
		FROM friendships WHERE id = ?`

	return r.scanFriendship(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteFriendshipRepo) GetBetween(ctx context.Context, userID, otherID string) (*models.Friendship, error) {
	query := `
		SELECT id, user_id, friend_id, status, created_at, updated_at
		FROM friendships
		WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)`

	return r.scanFriendship(r.db.QueryRowContext(ctx, query, userID, otherID, otherID, userID))
}

func (r *sqliteFriendshipRepo) UpdateStatus(ctx context.Context, id string, status models.FriendshipStatus) error {
	query := `UPDATE friendships SET status = ?, updated_at = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update friendship: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func (r *sqliteFriendshipRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friendships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func (r *sqliteFriendshipRepo) ListFriends(ctx context.Context, userID string) ([]models.FriendshipWithUser, error) {
	// Union both directions so the caller always sees the other party.
	query := `
		SELECT f.id, f.status, f.created_at, u.id, u.username, u.display_name
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.user_id = ? THEN f.friend_id ELSE f.user_id END
		WHERE (f.user_id = ? OR f.friend_id = ?) AND f.status = 'accepted'
		ORDER BY u.username`

	rows, err := r.db.QueryContext(ctx, query, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	return collectFriendshipsWithUser(rows)
}

func (r *sqliteFriendshipRepo) ListPendingReceived(ctx context.Context, userID string) ([]models.FriendshipWithUser, error) {
	query := `
		SELECT f.id, f.status, f.created_at, u.id, u.username, u.display_name
		FROM friendships f
		JOIN users u ON u.id = f.user_id
		WHERE f.friend_id = ? AND f.status = 'pending'
		ORDER BY f.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer rows.Close()

	return collectFriendshipsWithUser(rows)
}

func (r *sqliteFriendshipRepo) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM friendships
			WHERE ((user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?))
			  AND status = 'accepted'
		)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID, otherID, otherID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return exists, nil
}

func (r *sqliteFriendshipRepo) scanFriendship(row *sql.Row) (*models.Friendship, error) {
	f := &models.Friendship{}
	err := row.Scan(&f.ID, &f.UserID, &f.FriendID, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}
	return f, nil
}

func collectFriendshipsWithUser(rows *sql.Rows) ([]models.FriendshipWithUser, error) {
	result := []models.FriendshipWithUser{}
	for rows.Next() {
		var fw models.FriendshipWithUser
		var displayName sql.NullString
		if err := rows.Scan(&fw.ID, &fw.Status, &fw.CreatedAt, &fw.UserID, &fw.Username, &displayName); err != nil {
			return nil, fmt.Errorf("failed to scan friendship row: %w", err)
		}
		if displayName.Valid {
			fw.DisplayName = &displayName.String
		}
		result = append(result, fw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate friendship rows: %w", err)
	}
	return result, nil
}
