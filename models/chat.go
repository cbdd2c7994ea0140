package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ChatRoom is a 1:1 conversation between two users. The pair is stored
// canonically ordered (AuthorID < FriendID) so exactly one room exists per
// pair no matter which side opened it.
type ChatRoom struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	FriendID  string    `json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
	Peer      *User     `json:"peer,omitempty"` // the other participant, from the caller's view
}

// ChatMessage is one message inside a room.
type ChatMessage struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessagePage is a cursor page of messages, newest first.
type ChatMessagePage struct {
	Messages []ChatMessage `json:"messages"`
	HasMore  bool          `json:"has_more"`
}

// SendChatMessageRequest is the send-message payload.
type SendChatMessageRequest struct {
	Body string `json:"body"`
}

// Validate checks the send-message payload.
func (r *SendChatMessageRequest) Validate() error {
	r.Body = strings.TrimSpace(r.Body)
	if r.Body == "" {
		return fmt.Errorf("message body is required")
	}
	if utf8.RuneCountInString(r.Body) > 2000 {
		return fmt.Errorf("message body must be at most 2000 characters")
	}
	return nil
}
