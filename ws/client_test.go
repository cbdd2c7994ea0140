package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/denizoku/pulse/models"
)

// stubValidator accepts any token of the form "token-<userID>".
type stubValidator struct{}

func (stubValidator) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	userID, ok := strings.CutPrefix(tokenString, "token-")
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return &models.TokenClaims{UserID: userID, Username: userID}, nil
}

// stubSink records commands and serves a fixed unread count.
type stubSink struct {
	mu        sync.Mutex
	unread    int
	marked    []int64
	markedAll int
}

func (s *stubSink) MarkRead(_ context.Context, _ string, notificationID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, notificationID)
	return nil
}

func (s *stubSink) MarkAllRead(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markedAll++
	return nil
}

func (s *stubSink) UnreadCount(context.Context, string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread, nil
}

func newWSTestServer(t *testing.T, sink CommandSink) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub()
	go hub.Run()

	handler := NewHandler(hub, stubValidator{}, sink)
	srv := httptest.NewServer(http.HandlerFunc(handler.HandleConnection))
	t.Cleanup(srv.Close)

	return hub, srv
}

func dialWS(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=token-" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline failed: %v", err)
	}
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event failed: %v", err)
	}
	return ev
}

func TestConnectRejectsBadToken(t *testing.T) {
	_, srv := newWSTestServer(t, &stubSink{})

	tests := []struct {
		name  string
		query string
	}{
		{"missing token", ""},
		{"invalid token", "?token=garbage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "ws" + strings.TrimPrefix(srv.URL, "http") + tt.query
			_, resp, err := websocket.DefaultDialer.Dial(url, nil)
			if err == nil {
				t.Fatal("dial should fail without a valid token")
			}
			if resp == nil || resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %v, want 401", resp)
			}
		})
	}
}

func TestConnectPushesInitialUnreadCount(t *testing.T) {
	_, srv := newWSTestServer(t, &stubSink{unread: 4})

	conn := dialWS(t, srv, "alice")
	ev := readEvent(t, conn)

	if ev.Type != EventUnreadCount {
		t.Errorf("first frame type = %s, want %s", ev.Type, EventUnreadCount)
	}
	if ev.Count == nil || *ev.Count != 4 {
		t.Error("first frame should carry the current unread count")
	}
}

func TestMarkReadCommandReachesSink(t *testing.T) {
	sink := &stubSink{}
	_, srv := newWSTestServer(t, sink)

	conn := dialWS(t, srv, "alice")
	readEvent(t, conn) // initial unread_count

	if err := conn.WriteJSON(Command{Type: CmdMarkRead, NotificationID: 42}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sink.mu.Lock()
		n := len(sink.marked)
		sink.mu.Unlock()
		if n == 1 {
			sink.mu.Lock()
			defer sink.mu.Unlock()
			if sink.marked[0] != 42 {
				t.Errorf("marked id = %d, want 42", sink.marked[0])
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("mark_read never reached the sink")
}

func TestMalformedFramesAreIgnored(t *testing.T) {
	sink := &stubSink{}
	_, srv := newWSTestServer(t, sink)

	conn := dialWS(t, srv, "alice")
	readEvent(t, conn)

	// Garbage, then an unknown command, then a valid one. The connection
	// must survive the first two.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := conn.WriteJSON(Command{Type: "dance"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := conn.WriteJSON(Command{Type: CmdMarkAllRead}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sink.mu.Lock()
		n := sink.markedAll
		sink.mu.Unlock()
		if n == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("connection did not survive malformed frames")
}

func TestBroadcastReachesMultipleDevices(t *testing.T) {
	hub, srv := newWSTestServer(t, &stubSink{unread: 0})

	phone := dialWS(t, srv, "alice")
	laptop := dialWS(t, srv, "alice")
	readEvent(t, phone)
	readEvent(t, laptop)
	waitOnline(t, hub, "alice")

	hub.BroadcastToUser("alice", NewNotificationEvent(&models.Notification{
		ID:          1,
		RecipientID: "alice",
		Kind:        models.KindLike,
		PreviewText: "bob liked your post",
	}))

	for _, conn := range []*websocket.Conn{phone, laptop} {
		ev := readEvent(t, conn)
		if ev.Type != EventNotification {
			t.Errorf("type = %s, want %s", ev.Type, EventNotification)
		}
		if ev.Notification == nil || ev.Notification.ID != 1 {
			t.Error("event should carry the notification")
		}
	}

	// JSON-level check of the wire shape: marshaled frames carry "type".
	data, _ := json.Marshal(NewUnreadCountEvent(0))
	if !strings.Contains(string(data), `"type":"unread_count"`) {
		t.Errorf("unexpected wire shape: %s", data)
	}
}
