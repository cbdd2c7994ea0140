package models

import (
	"time"
	"unicode/utf8"
)

// NotificationKind is the closed set of event kinds that can produce a
// notification. Anything outside this set is rejected at Notify time.
type NotificationKind string

const (
	KindLike          NotificationKind = "like"
	KindComment       NotificationKind = "comment"
	KindFriendRequest NotificationKind = "friend_request"
	KindFriendAccept  NotificationKind = "friend_accept"
	KindChatMessage   NotificationKind = "chat_message"
	KindSystem        NotificationKind = "system"
)

// Valid reports whether k is a recognized kind.
func (k NotificationKind) Valid() bool {
	switch k {
	case KindLike, KindComment, KindFriendRequest, KindFriendAccept, KindChatMessage, KindSystem:
		return true
	}
	return false
}

// PreviewTextMaxLen bounds the denormalized preview string.
const PreviewTextMaxLen = 120

// TruncatePreview clips s to PreviewTextMaxLen runes, appending an ellipsis
// when something was cut.
func TruncatePreview(s string) string {
	if utf8.RuneCountInString(s) <= PreviewTextMaxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:PreviewTextMaxLen-1]) + "…"
}

// Notification is one entry in a user's notification feed.
//
// The feed is ordered newest-first by (created_at, id); id is an
// AUTOINCREMENT integer so ties on created_at still order stably. SenderID
// is nil for system notifications. Seen only ever transitions false→true.
type Notification struct {
	ID          int64            `json:"id"`
	RecipientID string           `json:"recipient_id"`
	SenderID    *string          `json:"sender_id"`
	Kind        NotificationKind `json:"kind"`
	SubjectRef  string           `json:"subject_ref"`
	PreviewText string           `json:"preview_text"`
	CreatedAt   time.Time        `json:"created_at"`
	Seen        bool             `json:"seen"`
}

// NotificationPage is one page of a recipient's feed. NextCursor is an
// opaque token; passing it back returns strictly older entries, so
// concatenating pages yields every notification exactly once even while new
// ones are being inserted at the head.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	NextCursor    string         `json:"next_cursor,omitempty"`
	HasMore       bool           `json:"has_more"`
}
