package repository

import (
	"context"

	"github.com/denizoku/pulse/models"
)

// FriendshipRepository persists the directed friendship rows. The service
// layer treats accepted rows as symmetric.
type FriendshipRepository interface {
	Create(ctx context.Context, friendship *models.Friendship) error
	GetByID(ctx context.Context, id string) (*models.Friendship, error)
	// GetBetween returns the row connecting the two users in either
	// direction, whatever its status.
	GetBetween(ctx context.Context, userID, otherID string) (*models.Friendship, error)
	UpdateStatus(ctx context.Context, id string, status models.FriendshipStatus) error
	Delete(ctx context.Context, id string) error
	// ListFriends returns accepted friendships joined with the other
	// party's public fields.
	ListFriends(ctx context.Context, userID string) ([]models.FriendshipWithUser, error)
	// ListPendingReceived returns requests waiting on userID's answer.
	ListPendingReceived(ctx context.Context, userID string) ([]models.FriendshipWithUser, error)
	// AreFriends reports whether an accepted row connects the two users.
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)
}
