package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/denizoku/pulse/database"
	"github.com/denizoku/pulse/models"
	"github.com/denizoku/pulse/pkg"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
)

type sqliteChatRepo struct {
	db database.TxQuerier
}

// NewSQLiteChatRepo returns the SQLite-backed ChatRepository.
func NewSQLiteChatRepo(db database.TxQuerier) ChatRepository {
	return &sqliteChatRepo{db: db}
}

// CreateRoom inserts a room. The participant pair must arrive ordered
// (author_id < friend_id); the service layer canonicalizes it.
func (r *sqliteChatRepo) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	query := `
		INSERT INTO chat_rooms (id, author_id, friend_id)
		VALUES (?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		room.ID,
		room.AuthorID,
		room.FriendID,
	).Scan(&room.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: room already exists", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create chat room: %w", err)
	}
	return nil
}

func (r *sqliteChatRepo) GetRoomByID(ctx context.Context, id string) (*models.ChatRoom, error) {
	query := `
		SELECT id, author_id, friend_id, created_at
		FROM chat_rooms WHERE id = ?`

	return r.scanRoom(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteChatRepo) GetRoomBetween(ctx context.Context, userID, otherID string) (*models.ChatRoom, error) {
	query := `
		SELECT id, author_id, friend_id, created_at
		FROM chat_rooms
		WHERE (author_id = ? AND friend_id = ?) OR (author_id = ? AND friend_id = ?)`

	return r.scanRoom(r.db.QueryRowContext(ctx, query, userID, otherID, otherID, userID))
}

func (r *sqliteChatRepo) ListRooms(ctx context.Context, userID string) ([]models.ChatRoom, error) {
	// Order by latest message so active conversations float up.
	query := `
		SELECT r.id, r.author_id, r.friend_id, r.created_at,
		       u.id, u.username, u.display_name
		FROM chat_rooms r
		JOIN users u ON u.id = CASE WHEN r.author_id = ? THEN r.friend_id ELSE r.author_id END
		WHERE r.author_id = ? OR r.friend_id = ?
		ORDER BY COALESCE(
			(SELECT MAX(m.created_at) FROM chat_messages m WHERE m.room_id = r.id),
			r.created_at
		) DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat rooms: %w", err)
	}
	defer rows.Close()

	roomList := []models.ChatRoom{}
	for rows.Next() {
		var room models.ChatRoom
		var peer models.User
		var displayName sql.NullString
		err := rows.Scan(&room.ID, &room.AuthorID, &room.FriendID, &room.CreatedAt,
			&peer.ID, &peer.Username, &displayName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat room row: %w", err)
		}
		if displayName.Valid {
			peer.DisplayName = &displayName.String
		}
		room.Peer = &peer
		roomList = append(roomList, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat room rows: %w", err)
	}
	return roomList, nil
}

func (r *sqliteChatRepo) CreateMessage(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, room_id, sender_id, body)
		VALUES (?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		msg.ID,
		msg.RoomID,
		msg.SenderID,
		msg.Body,
	).Scan(&msg.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

func (r *sqliteChatRepo) ListMessages(ctx context.Context, roomID, beforeID string, limit int) (*models.ChatMessagePage, error) {
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	query := `
		SELECT id, room_id, sender_id, body, created_at
		FROM chat_messages
		WHERE room_id = ?`
	args := []any{roomID}
	if beforeID != "" {
		query += `
		  AND (created_at, id) < (SELECT created_at, id FROM chat_messages WHERE id = ?)`
		args = append(args, beforeID)
	}
	query += `
		ORDER BY created_at DESC, id DESC
		LIMIT ?`
	args = append(args, limit+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	page := &models.ChatMessagePage{Messages: []models.ChatMessage{}}
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.SenderID, &msg.Body, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message row: %w", err)
		}
		page.Messages = append(page.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat message rows: %w", err)
	}

	if len(page.Messages) > limit {
		page.Messages = page.Messages[:limit]
		page.HasMore = true
	}
	return page, nil
}

func (r *sqliteChatRepo) scanRoom(row *sql.Row) (*models.ChatRoom, error) {
	room := &models.ChatRoom{}
	err := row.Scan(&room.ID, &room.AuthorID, &room.FriendID, &room.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat room: %w", err)
	}
	return room, nil
}
