// Package repository defines one interface per entity plus the SQLite
// implementations. Services depend on the interfaces only.
package repository

import (
	"context"

	"github.com/denizoku/pulse/models"
)

// NotificationRepository is the durable notification ledger. It is the
// source of truth for unread counts and feed history; live socket delivery
// is only ever a hint layered on top of it.
type NotificationRepository interface {
	// Create persists a new unseen notification, assigning ID and CreatedAt.
	Create(ctx context.Context, n *models.Notification) error

	// GetByID returns the notification only if it belongs to recipientID.
	GetByID(ctx context.Context, id int64, recipientID string) (*models.Notification, error)

	// ListByRecipient returns one page newest-first. cursor is an opaque
	// token from a previous page ("" for the first page); limit is clamped
	// to a sane range.
	ListByRecipient(ctx context.Context, recipientID, cursor string, limit int) (*models.NotificationPage, error)

	// MarkSeen flips seen for one row. Returns true only when an unseen row
	// owned by recipientID was updated — a second call, a foreign id, or a
	// missing id all return (false, nil), never an error.
	MarkSeen(ctx context.Context, id int64, recipientID string) (bool, error)

	// MarkAllSeen flips every unseen row for the recipient and returns how
	// many were updated.
	MarkAllSeen(ctx context.Context, recipientID string) (int64, error)

	// UnreadCount recounts unseen rows. Always computed fresh.
	UnreadCount(ctx context.Context, recipientID string) (int, error)
}
