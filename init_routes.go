// Package main — HTTP route registration.
package main

import (
	"net/http"

	"github.com/denizoku/pulse/middleware"
	"github.com/denizoku/pulse/repository"
	"github.com/denizoku/pulse/services"
)

// initRoutes wires every endpoint into the mux.
//
// Route ordering rule: literal paths must come before parametric ones, or
// the router reads the literal segment as a parameter value.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	userRepo repository.UserRepository,
) {
	authMw := middleware.NewAuthMiddleware(authService, userRepo)

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}

	// Auth
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)
	mux.Handle("GET /api/auth/me", auth(h.Auth.Me))

	// Notifications — the HTTP catch-up surface of the feed.
	mux.Handle("GET /api/notifications", auth(h.Notification.List))
	mux.Handle("GET /api/notifications/unread-count", auth(h.Notification.UnreadCount))
	mux.Handle("POST /api/notifications/seen-all", auth(h.Notification.MarkAllRead))
	mux.Handle("POST /api/notifications/{id}/seen", auth(h.Notification.MarkRead))

	// Friends
	mux.Handle("GET /api/friends", auth(h.Friendship.ListFriends))
	mux.Handle("GET /api/friends/online", auth(h.Friendship.ListOnline))
	mux.Handle("GET /api/friends/requests", auth(h.Friendship.ListPending))
	mux.Handle("POST /api/friends/requests", auth(h.Friendship.SendRequest))
	mux.Handle("POST /api/friends/requests/{id}/accept", auth(h.Friendship.Accept))
	mux.Handle("POST /api/friends/requests/{id}/decline", auth(h.Friendship.Decline))
	mux.Handle("DELETE /api/friends/{id}", auth(h.Friendship.Remove))

	// Posts
	mux.Handle("GET /api/posts", auth(h.Post.List))
	mux.Handle("POST /api/posts", auth(h.Post.Create))
	mux.Handle("GET /api/posts/{id}", auth(h.Post.Get))
	mux.Handle("DELETE /api/posts/{id}", auth(h.Post.Delete))
	mux.Handle("POST /api/posts/{id}/like", auth(h.Post.ToggleLike))
	mux.Handle("GET /api/posts/{id}/comments", auth(h.Post.ListComments))
	mux.Handle("POST /api/posts/{id}/comments", auth(h.Post.AddComment))

	// Chat
	mux.Handle("GET /api/chat/rooms", auth(h.Chat.ListRooms))
	mux.Handle("POST /api/chat/rooms", auth(h.Chat.OpenRoom))
	mux.Handle("GET /api/chat/rooms/{id}/messages", auth(h.Chat.ListMessages))
	mux.Handle("POST /api/chat/rooms/{id}/messages", auth(h.Chat.SendMessage))

	// WebSocket — authenticates via ?token=, no middleware chain.
	mux.HandleFunc("GET /ws/notifications", h.WS.HandleConnection)
}
