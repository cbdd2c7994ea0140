package models

import (
	"fmt"
	"strings"
	"time"
)

// FriendshipStatus tracks the lifecycle of a friendship row.
type FriendshipStatus string

const (
	FriendshipStatusPending  FriendshipStatus = "pending"
	FriendshipStatusAccepted FriendshipStatus = "accepted"
)

// Friendship is a directed row: UserID sent the request, FriendID received
// it. Once accepted the relation is treated as symmetric (queries union both
// directions).
type Friendship struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	FriendID  string           `json:"friend_id"`
	Status    FriendshipStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// FriendshipWithUser is the API shape: the friendship row joined with the
// other party's public user fields.
type FriendshipWithUser struct {
	ID          string           `json:"id"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UserID      string           `json:"user_id"`
	Username    string           `json:"username"`
	DisplayName *string          `json:"display_name"`
}

// SendFriendRequestRequest targets a user by username.
type SendFriendRequestRequest struct {
	Username string `json:"username"`
}

// Validate checks the friend request payload.
func (r *SendFriendRequestRequest) Validate() error {
	r.Username = strings.ToLower(strings.TrimSpace(r.Username))
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	return nil
}
