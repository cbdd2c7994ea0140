// Package services holds the business logic layer.
//
// Services sit between handlers (HTTP) and repositories (DB). They never
// touch http.Request/Response and never run SQL directly; handlers depend
// on the service interfaces, not the concrete structs.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/denizoku/pulse/models"
	"github.com/denizoku/pulse/pkg"
	"github.com/denizoku/pulse/repository"
	"github.com/denizoku/pulse/ws"
)

// NotificationService owns the notification feed: creation, fan-out,
// read-state and pagination. It doubles as the sink for commands arriving
// over the WebSocket (it satisfies ws.CommandSink).
type NotificationService interface {
	// Notify persists a notification and fans it out to the recipient's
	// live connections. The row is durable before anything is pushed, so
	// a crash between the two steps loses only the push, never the
	// notification.
	Notify(ctx context.Context, n *models.Notification) error
	// List pages the recipient's feed newest-first. cursor "" starts at
	// the top; the returned NextCursor fetches strictly older entries.
	List(ctx context.Context, userID, cursor string, limit int) (*models.NotificationPage, error)
	// MarkRead marks one notification seen. Idempotent: marking an
	// already-seen, missing, or foreign notification is a silent no-op so
	// client retries stay simple.
	MarkRead(ctx context.Context, userID string, notificationID int64) error
	// MarkAllRead marks every unread notification of the user seen.
	MarkAllRead(ctx context.Context, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

type notificationService struct {
	repo repository.NotificationRepository
	hub  ws.EventPublisher
}

// NewNotificationService wires the notification store to the event hub.
func NewNotificationService(repo repository.NotificationRepository, hub ws.EventPublisher) NotificationService {
	return &notificationService{repo: repo, hub: hub}
}

func (s *notificationService) Notify(ctx context.Context, n *models.Notification) error {
	if n.RecipientID == "" {
		return fmt.Errorf("%w: notification recipient is required", pkg.ErrBadRequest)
	}
	if !n.Kind.Valid() {
		return fmt.Errorf("%w: unknown notification kind %q", pkg.ErrBadRequest, n.Kind)
	}
	n.PreviewText = models.TruncatePreview(n.PreviewText)

	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	// Push only after the row is durable. Push failures are logged and
	// swallowed: the recipient will see the notification on their next
	// fetch, and the producer's own operation already succeeded.
	s.hub.BroadcastToUser(n.RecipientID, ws.NewNotificationEvent(n))
	s.pushUnreadCount(ctx, n.RecipientID)
	return nil
}

func (s *notificationService) List(ctx context.Context, userID, cursor string, limit int) (*models.NotificationPage, error) {
	return s.repo.ListByRecipient(ctx, userID, cursor, limit)
}

func (s *notificationService) MarkRead(ctx context.Context, userID string, notificationID int64) error {
	changed, err := s.repo.MarkSeen(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if !changed {
		// Already seen, missing, or someone else's. All three are soft
		// no-ops so a retried or stale mark never errors.
		return nil
	}

	// Broadcast the updated row to every connection of the user so all
	// their devices converge, including the one that sent the command.
	n, err := s.repo.GetByID(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	s.hub.BroadcastToUser(userID, ws.NewNotificationUpdateEvent(n))
	s.pushUnreadCount(ctx, userID)
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	n, err := s.repo.MarkAllSeen(ctx, userID)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("[notifications] marked %d notifications read for user %s", n, userID)
	}
	s.hub.BroadcastToUser(userID, ws.NewUnreadCountEvent(0))
	return nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *notificationService) pushUnreadCount(ctx context.Context, userID string) {
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		log.Printf("[notifications] failed to load unread count for user %s: %v", userID, err)
		return
	}
	s.hub.BroadcastToUser(userID, ws.NewUnreadCountEvent(count))
}

// notifyOrLog is the producer-side helper: the triggering action (like,
// comment, friend request) has already committed, so a failed notification
// must not fail the request. It is logged and dropped.
func notifyOrLog(ctx context.Context, svc NotificationService, n *models.Notification) {
	if err := svc.Notify(ctx, n); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[notifications] failed to notify user %s (%s): %v", n.RecipientID, n.Kind, err)
	}
}
