package services

import (
	"context"
	"errors"
	"testing"

	"github.com/denizoku/pulse/database"
	"github.com/denizoku/pulse/models"
	"github.com/denizoku/pulse/pkg"
	"github.com/denizoku/pulse/repository"
	"github.com/denizoku/pulse/ws"
)

func newTestFriendshipService(t *testing.T) (FriendshipService, *mockPublisher, *database.DB) {
	t.Helper()

	db := newTestDB(t)
	pub := &mockPublisher{}
	notifications := NewNotificationService(repository.NewSQLiteNotificationRepo(db.Conn), pub)
	svc := NewFriendshipService(
		repository.NewSQLiteFriendshipRepo(db.Conn),
		repository.NewSQLiteUserRepo(db.Conn),
		notifications,
		pub,
	)
	return svc, pub, db
}

func lastNotificationKind(events []publishedEvent) (models.NotificationKind, string) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].event.Type == ws.EventNotification {
			return events[i].event.Notification.Kind, events[i].userID
		}
	}
	return "", ""
}

func TestSendRequestNotifiesTarget(t *testing.T) {
	svc, pub, db := newTestFriendshipService(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	ctx := context.Background()

	f, err := svc.SendRequest(ctx, alice.ID, &models.SendFriendRequestRequest{Username: "bob"})
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	if f.Status != models.FriendshipStatusPending {
		t.Errorf("status = %s, want pending", f.Status)
	}

	kind, recipient := lastNotificationKind(pub.published())
	if kind != models.KindFriendRequest {
		t.Errorf("notification kind = %s, want %s", kind, models.KindFriendRequest)
	}
	if recipient != bob.ID {
		t.Errorf("notification went to %s, want bob", recipient)
	}
}

func TestSendRequestRejectsSelfAndDuplicates(t *testing.T) {
	svc, _, db := newTestFriendshipService(t)
	alice := createTestUser(t, db, "alice")
	createTestUser(t, db, "bob")
	ctx := context.Background()

	if _, err := svc.SendRequest(ctx, alice.ID, &models.SendFriendRequestRequest{Username: "alice"}); !errors.Is(err, pkg.ErrBadRequest) {
		t.Errorf("self request = %v, want ErrBadRequest", err)
	}

	if _, err := svc.SendRequest(ctx, alice.ID, &models.SendFriendRequestRequest{Username: "bob"}); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if _, err := svc.SendRequest(ctx, alice.ID, &models.SendFriendRequestRequest{Username: "bob"}); !errors.Is(err, pkg.ErrAlreadyExists) {
		t.Errorf("duplicate request = %v, want ErrAlreadyExists", err)
	}
}

func TestMutualRequestsAutoAccept(t *testing.T) {
	svc, pub, db := newTestFriendshipService(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	ctx := context.Background()

	if _, err := svc.SendRequest(ctx, alice.ID, &models.SendFriendRequestRequest{Username: "bob"}); err != nil {
		t.Fatalf("alice's request failed: %v", err)
	}

	// Bob asking back accepts instead of creating a second row.
	f, err := svc.SendRequest(ctx, bob.ID, &models.SendFriendRequestRequest{Username: "alice"})
	if err != nil {
		t.Fatalf("bob's request failed: %v", err)
	}
	if f.Status != models.FriendshipStatusAccepted {
		t.Errorf("status = %s, want accepted", f.Status)
	}

	kind, recipient := lastNotificationKind(pub.published())
	if kind != models.KindFriendAccept {
		t.Errorf("notification kind = %s, want %s", kind, models.KindFriendAccept)
	}
	if recipient != alice.ID {
		t.Errorf("accept notification went to %s, want alice", recipient)
	}

	friends, err := svc.ListFriends(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListFriends failed: %v", err)
	}
	if len(friends) != 1 || friends[0].Username != "bob" {
		t.Errorf("alice's friends = %+v, want just bob", friends)
	}
}

func TestAcceptRequiresRecipient(t *testing.T) {
	svc, _, db := newTestFriendshipService(t)
	alice := createTestUser(t, db, "alice")
	createTestUser(t, db, "bob")
	ctx := context.Background()

	f, err := svc.SendRequest(ctx, alice.ID, &models.SendFriendRequestRequest{Username: "bob"})
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}

	// The sender cannot accept their own request.
	if err := svc.Accept(ctx, alice.ID, f.ID); !errors.Is(err, pkg.ErrForbidden) {
		t.Errorf("Accept by sender = %v, want ErrForbidden", err)
	}
}

func TestListOnlineFriendsFiltersByPresence(t *testing.T) {
	svc, pub, db := newTestFriendshipService(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	ctx := context.Background()

	for _, requester := range []*models.User{bob, carol} {
		if _, err := svc.SendRequest(ctx, requester.ID, &models.SendFriendRequestRequest{Username: "alice"}); err != nil {
			t.Fatalf("SendRequest failed: %v", err)
		}
		pending, err := svc.ListPendingReceived(ctx, alice.ID)
		if err != nil {
			t.Fatalf("ListPendingReceived failed: %v", err)
		}
		if err := svc.Accept(ctx, alice.ID, pending[0].ID); err != nil {
			t.Fatalf("Accept failed: %v", err)
		}
	}

	// Only bob holds a connection; carol is offline, dave is not a friend.
	pub.online = []string{bob.ID, "dave"}

	online, err := svc.ListOnlineFriends(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListOnlineFriends failed: %v", err)
	}
	if len(online) != 1 || online[0].UserID != bob.ID {
		t.Errorf("online friends = %+v, want just bob", online)
	}

	pub.online = nil
	online, err = svc.ListOnlineFriends(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListOnlineFriends failed: %v", err)
	}
	if len(online) != 0 {
		t.Errorf("online friends with empty hub = %d, want 0", len(online))
	}
}

func TestDeclineIsSilent(t *testing.T) {
	svc, pub, db := newTestFriendshipService(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	ctx := context.Background()

	f, err := svc.SendRequest(ctx, alice.ID, &models.SendFriendRequestRequest{Username: "bob"})
	if err != nil {
		t.Fatalf("SendRequest failed: %v", err)
	}
	before := len(pub.published())

	if err := svc.Decline(ctx, bob.ID, f.ID); err != nil {
		t.Fatalf("Decline failed: %v", err)
	}

	// No notification for the requester.
	if got := len(pub.published()); got != before {
		t.Errorf("Decline published %d extra events, want 0", got-before)
	}

	pending, err := svc.ListPendingReceived(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListPendingReceived failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending requests = %d, want 0", len(pending))
	}
}
