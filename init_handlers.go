// Package main — handler layer wire-up.
package main

import (
	"github.com/denizoku/pulse/handlers"
	"github.com/denizoku/pulse/ws"
)

// Handlers is the container holding every HTTP handler instance.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Notification *handlers.NotificationHandler
	Friendship   *handlers.FriendshipHandler
	Post         *handlers.PostHandler
	Chat         *handlers.ChatHandler
	WS           *ws.Handler
}

// initHandlers builds every handler. The WebSocket handler takes the auth
// service through the ws.TokenValidator interface and the notification
// service through ws.CommandSink — both are satisfied implicitly.
func initHandlers(svcs *Services, limiters *RateLimiters, hub *ws.Hub) *Handlers {
	return &Handlers{
		Auth:         handlers.NewAuthHandler(svcs.Auth, limiters.Login),
		Notification: handlers.NewNotificationHandler(svcs.Notification),
		Friendship:   handlers.NewFriendshipHandler(svcs.Friendship),
		Post:         handlers.NewPostHandler(svcs.Post),
		Chat:         handlers.NewChatHandler(svcs.Chat),
		WS:           ws.NewHandler(hub, svcs.Auth, svcs.Notification),
	}
}
