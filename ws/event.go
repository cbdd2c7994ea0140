// Package ws manages WebSocket connections and real-time event delivery.
//
// Architecture:
// - Hub: central registry of all connections, keyed by user (Observer pattern)
// - Client: one WebSocket connection with an explicit lifecycle state machine
// - Event: server → client message format
// - Command: client → server message format
//
// Delivery flow:
// 1. Something happens (like, comment, friend request) → service persists a
//    notification row
// 2. The service calls Hub.BroadcastToUser for the recipient
// 3. The Hub fans the event out to every live connection of that user
// 4. Each client's WritePump writes the frame to its socket
package ws

import "github.com/denizoku/pulse/models"

// Server → client event types.
const (
	EventNotification       = "notification"        // a new notification was created
	EventNotificationUpdate = "notification_update" // an existing notification changed (e.g. marked read)
	EventUnreadCount        = "unread_count"        // fresh unread total for the user
)

// Client → server command types.
const (
	CmdMarkRead    = "mark_read"
	CmdMarkAllRead = "mark_all_read"
)

// Event is one server → client frame.
//
// Seq is an increasing counter stamped on every outbound event.
// Clients track it to detect gaps: seq 5 followed by seq 7 means 6 was lost
// and a catch-up fetch over HTTP is in order.
type Event struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification,omitempty"`
	Count        *int                 `json:"count,omitempty"`
	Seq          int64                `json:"seq,omitempty"`
}

// Command is one client → server frame.
type Command struct {
	Type           string `json:"type"`
	NotificationID int64  `json:"notification_id,omitempty"`
}

// NewNotificationEvent wraps a freshly created notification.
func NewNotificationEvent(n *models.Notification) Event {
	return Event{Type: EventNotification, Notification: n}
}

// NewNotificationUpdateEvent wraps a changed notification.
func NewNotificationUpdateEvent(n *models.Notification) Event {
	return Event{Type: EventNotificationUpdate, Notification: n}
}

// NewUnreadCountEvent wraps an unread total.
func NewUnreadCountEvent(count int) Event {
	return Event{Type: EventUnreadCount, Count: &count}
}
