package ws

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/denizoku/pulse/models"
)

// TokenValidator is the slice of the auth service the handler needs.
//
// Defining it here instead of importing services avoids a cycle: services
// imports ws for EventPublisher, so ws cannot import services back. The
// auth service satisfies this implicitly.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict origins once the frontend domain is fixed.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades HTTP requests to WebSocket connections.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
	sink           CommandSink
}

// NewHandler builds the WebSocket handler.
func NewHandler(hub *Hub, tokenValidator TokenValidator, sink CommandSink) *Handler {
	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
		sink:           sink,
	}
}

// HandleConnection authenticates, upgrades, registers the client and pumps
// until the connection dies.
//
// Browsers cannot set Authorization headers on WebSocket requests, so the
// access token travels as a query parameter:
//
//	ws://server/ws/notifications?token=JWT
//
// The token is validated before the upgrade; a bad token costs only an
// HTTP 401, never a socket.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for user %s: %v", claims.UserID, err)
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		sink:   h.sink,
		userID: claims.UserID,
		send:   make(chan []byte, sendBufferSize),
	}
	client.setState(StateAuthorizing)

	h.hub.register <- client
	client.setState(StateActive)

	// The first frame on every connection is the current unread total,
	// so the client can render its badge before any event arrives.
	go client.WritePump()
	h.pushInitialUnreadCount(r.Context(), client)

	// ReadPump blocks on this goroutine until the connection closes;
	// returning earlier would end the HTTP handler and drop the socket.
	client.ReadPump()
}

func (h *Handler) pushInitialUnreadCount(ctx context.Context, client *Client) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	count, err := h.sink.UnreadCount(ctx, client.userID)
	if err != nil {
		log.Printf("[ws] failed to load unread count for user %s: %v", client.userID, err)
		return
	}
	client.sendEvent(NewUnreadCountEvent(count))
}
