package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/denizoku/pulse/database"
	"github.com/denizoku/pulse/models"
	"github.com/denizoku/pulse/pkg"
	"github.com/denizoku/pulse/pkg/ratelimit"
	"github.com/denizoku/pulse/repository"
)

func newTestChatService(t *testing.T) (ChatService, *database.DB) {
	t.Helper()

	db := newTestDB(t)
	pub := &mockPublisher{}
	notifications := NewNotificationService(repository.NewSQLiteNotificationRepo(db.Conn), pub)
	limiter := ratelimit.NewMessageRateLimiter(100, time.Minute, time.Second)
	t.Cleanup(limiter.Close)

	svc := NewChatService(
		repository.NewSQLiteChatRepo(db.Conn),
		repository.NewSQLiteFriendshipRepo(db.Conn),
		repository.NewSQLiteUserRepo(db.Conn),
		notifications,
		limiter,
	)
	return svc, db
}

// makeFriends inserts an accepted friendship directly.
func makeFriends(t *testing.T, db *database.DB, a, b *models.User) {
	t.Helper()

	repo := repository.NewSQLiteFriendshipRepo(db.Conn)
	f := &models.Friendship{
		ID:       uuid.NewString(),
		UserID:   a.ID,
		FriendID: b.ID,
		Status:   models.FriendshipStatusPending,
	}
	if err := repo.Create(context.Background(), f); err != nil {
		t.Fatalf("failed to create friendship: %v", err)
	}
	if err := repo.UpdateStatus(context.Background(), f.ID, models.FriendshipStatusAccepted); err != nil {
		t.Fatalf("failed to accept friendship: %v", err)
	}
}

func TestGetOrCreateRoomSharedBetweenSides(t *testing.T) {
	svc, db := newTestChatService(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	makeFriends(t, db, alice, bob)
	ctx := context.Background()

	r1, err := svc.GetOrCreateRoom(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("GetOrCreateRoom (alice) failed: %v", err)
	}
	// Opening from the other side must land in the same room, whichever
	// side got there first.
	r2, err := svc.GetOrCreateRoom(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("GetOrCreateRoom (bob) failed: %v", err)
	}
	if r1.ID != r2.ID {
		t.Errorf("room forked: %s vs %s", r1.ID, r2.ID)
	}
	if r1.AuthorID >= r1.FriendID {
		t.Errorf("pair not stored ordered: %s / %s", r1.AuthorID, r1.FriendID)
	}

	rooms, err := svc.ListRooms(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(rooms) != 1 {
		t.Errorf("alice has %d rooms, want 1", len(rooms))
	}
}

func TestGetOrCreateRoomRequiresFriendship(t *testing.T) {
	svc, db := newTestChatService(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	ctx := context.Background()

	if _, err := svc.GetOrCreateRoom(ctx, alice.ID, bob.ID); !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("room between strangers = %v, want ErrForbidden", err)
	}
	if _, err := svc.GetOrCreateRoom(ctx, alice.ID, alice.ID); !errors.Is(err, pkg.ErrBadRequest) {
		t.Errorf("room with yourself = %v, want ErrBadRequest", err)
	}
}
