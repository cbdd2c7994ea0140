package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/denizoku/pulse/models"
	"github.com/denizoku/pulse/repository"
)

// brokenUserRepo fails every lookup, simulating a store outage between the
// committed action and its notification.
type brokenUserRepo struct{}

func (brokenUserRepo) Create(context.Context, *models.User) error {
	return fmt.Errorf("user store unavailable")
}

func (brokenUserRepo) GetByID(context.Context, string) (*models.User, error) {
	return nil, fmt.Errorf("user store unavailable")
}

func (brokenUserRepo) GetByUsername(context.Context, string) (*models.User, error) {
	return nil, fmt.Errorf("user store unavailable")
}

// captureLog redirects the standard logger for the duration of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func TestToggleLikeLogsSkippedNotification(t *testing.T) {
	db := newTestDB(t)
	pub := &mockPublisher{}
	notifications := NewNotificationService(repository.NewSQLiteNotificationRepo(db.Conn), pub)
	svc := NewPostService(repository.NewSQLitePostRepo(db.Conn), brokenUserRepo{}, notifications)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, alice.ID, &models.CreatePostRequest{Title: "t", Content: "c"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	logs := captureLog(t)

	// The like itself must still land even though the liker lookup fails.
	liked, err := svc.ToggleLike(ctx, post.ID, bob.ID)
	if err != nil {
		t.Fatalf("ToggleLike failed: %v", err)
	}
	if !liked {
		t.Error("post should be liked")
	}
	if len(pub.published()) != 0 {
		t.Errorf("published %d events, want 0", len(pub.published()))
	}
	if !strings.Contains(logs.String(), "skipping like notification") {
		t.Errorf("skipped notification was not logged, got: %q", logs.String())
	}
}
