package services

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/denizoku/pulse/database"
	"github.com/denizoku/pulse/models"
	"github.com/denizoku/pulse/pkg"
	"github.com/denizoku/pulse/repository"
	"github.com/denizoku/pulse/ws"
)

// mockPublisher records broadcasts instead of pushing to sockets. Tests
// that exercise presence set online to the user IDs they want connected.
type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	online []string
}

type publishedEvent struct {
	userID string
	event  ws.Event
}

func (m *mockPublisher) BroadcastToUser(userID string, event ws.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{userID: userID, event: event})
}

func (m *mockPublisher) OnlineUserIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.online...)
}

func (m *mockPublisher) published() []publishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedEvent(nil), m.events...)
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		t.Fatalf("failed to open embedded migrations: %v", err)
	}
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), migrations)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *database.DB, username string) *models.User {
	t.Helper()

	user := &models.User{ID: uuid.NewString(), Username: username, PasswordHash: "x"}
	if err := repository.NewSQLiteUserRepo(db.Conn).Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func newTestNotificationService(t *testing.T) (NotificationService, *mockPublisher, *database.DB) {
	t.Helper()

	db := newTestDB(t)
	pub := &mockPublisher{}
	svc := NewNotificationService(repository.NewSQLiteNotificationRepo(db.Conn), pub)
	return svc, pub, db
}

func TestNotifyPersistsThenPublishes(t *testing.T) {
	svc, pub, db := newTestNotificationService(t)
	user := createTestUser(t, db, "alice")
	ctx := context.Background()

	n := &models.Notification{
		RecipientID: user.ID,
		Kind:        models.KindLike,
		PreviewText: "bob liked your post",
	}
	if err := svc.Notify(ctx, n); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if n.ID == 0 {
		t.Error("notification should be persisted with an id")
	}

	events := pub.published()
	if len(events) != 2 {
		t.Fatalf("published %d events, want 2 (notification + unread_count)", len(events))
	}
	if events[0].userID != user.ID {
		t.Errorf("event sent to %s, want %s", events[0].userID, user.ID)
	}
	if events[0].event.Type != ws.EventNotification {
		t.Errorf("first event type = %s, want %s", events[0].event.Type, ws.EventNotification)
	}
	if events[0].event.Notification == nil || events[0].event.Notification.ID != n.ID {
		t.Error("published notification should carry the persisted row")
	}
	if events[1].event.Type != ws.EventUnreadCount {
		t.Errorf("second event type = %s, want %s", events[1].event.Type, ws.EventUnreadCount)
	}
	if events[1].event.Count == nil || *events[1].event.Count != 1 {
		t.Error("unread count event should say 1")
	}
}

func TestNotifyRejectsInvalidInput(t *testing.T) {
	svc, pub, db := newTestNotificationService(t)
	user := createTestUser(t, db, "alice")
	ctx := context.Background()

	tests := []struct {
		name string
		n    *models.Notification
	}{
		{"missing recipient", &models.Notification{Kind: models.KindLike}},
		{"unknown kind", &models.Notification{RecipientID: user.ID, Kind: "poke"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.Notify(ctx, tt.n); !errors.Is(err, pkg.ErrBadRequest) {
				t.Errorf("Notify = %v, want ErrBadRequest", err)
			}
		})
	}

	if len(pub.published()) != 0 {
		t.Error("nothing should be published for rejected notifications")
	}
}

func TestNotifyTruncatesLongPreview(t *testing.T) {
	svc, _, db := newTestNotificationService(t)
	user := createTestUser(t, db, "alice")

	n := &models.Notification{
		RecipientID: user.ID,
		Kind:        models.KindComment,
		PreviewText: strings.Repeat("a", 500),
	}
	if err := svc.Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if got := len([]rune(n.PreviewText)); got > models.PreviewTextMaxLen {
		t.Errorf("preview length = %d runes, want <= %d", got, models.PreviewTextMaxLen)
	}
}

func TestMarkReadBroadcastsUpdateAndCount(t *testing.T) {
	svc, pub, db := newTestNotificationService(t)
	user := createTestUser(t, db, "alice")
	ctx := context.Background()

	n := &models.Notification{RecipientID: user.ID, Kind: models.KindLike, PreviewText: "x"}
	if err := svc.Notify(ctx, n); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	before := len(pub.published())

	if err := svc.MarkRead(ctx, user.ID, n.ID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	events := pub.published()[before:]
	if len(events) != 2 {
		t.Fatalf("MarkRead published %d events, want 2", len(events))
	}
	if events[0].event.Type != ws.EventNotificationUpdate {
		t.Errorf("first event type = %s, want %s", events[0].event.Type, ws.EventNotificationUpdate)
	}
	if events[0].event.Notification == nil || !events[0].event.Notification.Seen {
		t.Error("update event should carry the seen notification")
	}
	if events[1].event.Type != ws.EventUnreadCount || events[1].event.Count == nil || *events[1].event.Count != 0 {
		t.Error("count event should say 0 unread")
	}
}

func TestMarkReadIdempotentAndScoped(t *testing.T) {
	svc, pub, db := newTestNotificationService(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	ctx := context.Background()

	n := &models.Notification{RecipientID: alice.ID, Kind: models.KindLike, PreviewText: "x"}
	if err := svc.Notify(ctx, n); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	if err := svc.MarkRead(ctx, alice.ID, n.ID); err != nil {
		t.Fatalf("first MarkRead failed: %v", err)
	}
	before := len(pub.published())

	// Second mark is a silent success with no broadcasts.
	if err := svc.MarkRead(ctx, alice.ID, n.ID); err != nil {
		t.Fatalf("repeated MarkRead failed: %v", err)
	}
	if got := len(pub.published()); got != before {
		t.Errorf("repeated MarkRead published %d extra events, want 0", got-before)
	}

	// Someone else's notification and a nonexistent id are soft no-ops:
	// no error, no broadcast, and the row stays untouched for its owner.
	if err := svc.MarkRead(ctx, bob.ID, n.ID); err != nil {
		t.Errorf("MarkRead by non-owner = %v, want nil", err)
	}
	if err := svc.MarkRead(ctx, alice.ID, 99999); err != nil {
		t.Errorf("MarkRead of missing id = %v, want nil", err)
	}
	if got := len(pub.published()); got != before {
		t.Errorf("no-op MarkRead published %d extra events, want 0", got-before)
	}
}

func TestMarkAllReadBroadcastsZeroCount(t *testing.T) {
	svc, pub, db := newTestNotificationService(t)
	user := createTestUser(t, db, "alice")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		n := &models.Notification{RecipientID: user.ID, Kind: models.KindComment, PreviewText: "x"}
		if err := svc.Notify(ctx, n); err != nil {
			t.Fatalf("Notify failed: %v", err)
		}
	}
	before := len(pub.published())

	if err := svc.MarkAllRead(ctx, user.ID); err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}

	count, err := svc.UnreadCount(ctx, user.ID)
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("unread count = %d, want 0", count)
	}

	events := pub.published()[before:]
	if len(events) != 1 {
		t.Fatalf("MarkAllRead published %d events, want 1", len(events))
	}
	if events[0].event.Type != ws.EventUnreadCount || events[0].event.Count == nil || *events[0].event.Count != 0 {
		t.Error("MarkAllRead should broadcast an unread_count of 0")
	}
}
