package repository

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/denizoku/pulse/database"
	"github.com/denizoku/pulse/models"
	"github.com/denizoku/pulse/pkg"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// sqliteNotificationRepo implements NotificationRepository on SQLite.
//
// created_at is stored as unix microseconds so the keyset cursor over
// (created_at, id) compares exactly; DATETIME strings would make equality
// ties driver-dependent.
type sqliteNotificationRepo struct {
	db database.TxQuerier
}

// NewSQLiteNotificationRepo wires the repository to a DB (or transaction).
func NewSQLiteNotificationRepo(db database.TxQuerier) NotificationRepository {
	return &sqliteNotificationRepo{db: db}
}

func (r *sqliteNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	n.Seen = false

	query := `
		INSERT INTO notifications (recipient_id, sender_id, kind, subject_ref, preview_text, created_at, seen)
		VALUES (?, ?, ?, ?, ?, ?, 0)`

	res, err := r.db.ExecContext(ctx, query,
		n.RecipientID,
		n.SenderID,
		string(n.Kind),
		n.SubjectRef,
		n.PreviewText,
		n.CreatedAt.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read notification id: %w", err)
	}
	n.ID = id

	return nil
}

func (r *sqliteNotificationRepo) GetByID(ctx context.Context, id int64, recipientID string) (*models.Notification, error) {
	query := `
		SELECT id, recipient_id, sender_id, kind, subject_ref, preview_text, created_at, seen
		FROM notifications
		WHERE id = ? AND recipient_id = ?`

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id, recipientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

func (r *sqliteNotificationRepo) ListByRecipient(ctx context.Context, recipientID, cursor string, limit int) (*models.NotificationPage, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	var (
		query string
		args  []any
	)

	if cursor == "" {
		query = `
			SELECT id, recipient_id, sender_id, kind, subject_ref, preview_text, created_at, seen
			FROM notifications
			WHERE recipient_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?`
		args = []any{recipientID, limit + 1}
	} else {
		createdAt, id, err := decodeFeedCursor(cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid cursor", pkg.ErrBadRequest)
		}
		// Keyset condition: strictly older than the cursor row in
		// (created_at, id) order.
		query = `
			SELECT id, recipient_id, sender_id, kind, subject_ref, preview_text, created_at, seen
			FROM notifications
			WHERE recipient_id = ?
			  AND (created_at < ? OR (created_at = ? AND id < ?))
			ORDER BY created_at DESC, id DESC
			LIMIT ?`
		args = []any{recipientID, createdAt, createdAt, id, limit + 1}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}

	page := &models.NotificationPage{}
	if len(notifications) > limit {
		notifications = notifications[:limit]
		page.HasMore = true
	}
	page.Notifications = notifications

	if page.HasMore {
		last := notifications[len(notifications)-1]
		page.NextCursor = encodeFeedCursor(last.CreatedAt.UnixMicro(), last.ID)
	}

	return page, nil
}

func (r *sqliteNotificationRepo) MarkSeen(ctx context.Context, id int64, recipientID string) (bool, error) {
	// Single atomic update; the seen = 0 predicate is what makes the call
	// idempotent (a second call matches zero rows).
	query := `UPDATE notifications SET seen = 1 WHERE id = ? AND recipient_id = ? AND seen = 0`

	res, err := r.db.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification seen: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *sqliteNotificationRepo) MarkAllSeen(ctx context.Context, recipientID string) (int64, error) {
	query := `UPDATE notifications SET seen = 1 WHERE recipient_id = ? AND seen = 0`

	res, err := r.db.ExecContext(ctx, query, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications seen: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return affected, nil
}

func (r *sqliteNotificationRepo) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND seen = 0`

	var count int
	if err := r.db.QueryRowContext(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var (
		n         models.Notification
		senderID  sql.NullString
		createdAt int64
		seen      int
	)

	err := row.Scan(
		&n.ID, &n.RecipientID, &senderID, &n.Kind,
		&n.SubjectRef, &n.PreviewText, &createdAt, &seen,
	)
	if err != nil {
		return nil, err
	}

	if senderID.Valid {
		n.SenderID = &senderID.String
	}
	n.CreatedAt = time.UnixMicro(createdAt).UTC()
	n.Seen = seen != 0

	return &n, nil
}

// encodeFeedCursor packs (created_at unix-micro, id) into an opaque token.
func encodeFeedCursor(createdAt, id int64) string {
	raw := strconv.FormatInt(createdAt, 10) + "|" + strconv.FormatInt(id, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeFeedCursor(cursor string) (createdAt, id int64, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, 0, err
	}

	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed cursor")
	}

	createdAt, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	id, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, err
	}

	return createdAt, id, nil
}
