// Package main — service layer wire-up.
//
// Ordering matters: NotificationService must exist before every producer
// service (auth, friendship, post, chat), since they all publish through it.
package main

import (
	"time"

	"github.com/denizoku/pulse/config"
	"github.com/denizoku/pulse/pkg/ratelimit"
	"github.com/denizoku/pulse/services"
	"github.com/denizoku/pulse/ws"
)

// Services is the container holding every service instance.
type Services struct {
	Notification services.NotificationService
	Auth         services.AuthService
	Friendship   services.FriendshipService
	Post         services.PostService
	Chat         services.ChatService
}

// RateLimiters holds the rate limiter instances. They own background
// cleanup goroutines; Close them on shutdown.
type RateLimiters struct {
	Login   *ratelimit.LoginRateLimiter
	Message *ratelimit.MessageRateLimiter
}

func initRateLimiters() *RateLimiters {
	return &RateLimiters{
		// 5 attempts per IP per minute.
		Login: ratelimit.NewLoginRateLimiter(5, time.Minute),
		// 10 messages per 10s, then a 30s cooldown.
		Message: ratelimit.NewMessageRateLimiter(10, 10*time.Second, 30*time.Second),
	}
}

// initServices builds every service. NotificationService comes first so the
// producers can take it as a dependency.
func initServices(repos *Repositories, hub ws.EventPublisher, limiters *RateLimiters, cfg *config.Config) *Services {
	notificationService := services.NewNotificationService(repos.Notification, hub)

	return &Services{
		Notification: notificationService,
		Auth: services.NewAuthService(
			repos.User, repos.Session, notificationService,
			cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry,
		),
		Friendship: services.NewFriendshipService(repos.Friendship, repos.User, notificationService, hub),
		Post:       services.NewPostService(repos.Post, repos.User, notificationService),
		Chat: services.NewChatService(
			repos.Chat, repos.Friendship, repos.User, notificationService, limiters.Message,
		),
	}
}
