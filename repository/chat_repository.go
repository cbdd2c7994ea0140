package repository

import (
	"context"

	"github.com/denizoku/pulse/models"
)

// ChatRepository persists 1:1 chat rooms and their messages.
type ChatRepository interface {
	CreateRoom(ctx context.Context, room *models.ChatRoom) error
	GetRoomByID(ctx context.Context, id string) (*models.ChatRoom, error)
	// GetRoomBetween returns the room for the pair in either direction.
	GetRoomBetween(ctx context.Context, userID, otherID string) (*models.ChatRoom, error)
	// ListRooms returns the caller's rooms with Peer filled, most
	// recently active first.
	ListRooms(ctx context.Context, userID string) ([]models.ChatRoom, error)

	CreateMessage(ctx context.Context, msg *models.ChatMessage) error
	// ListMessages pages newest-first; beforeID narrows to messages
	// older than the given message.
	ListMessages(ctx context.Context, roomID, beforeID string, limit int) (*models.ChatMessagePage, error)
}
