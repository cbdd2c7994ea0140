// Package main — repository layer wire-up.
package main

import (
	"database/sql"

	"github.com/denizoku/pulse/repository"
)

// Repositories is the container holding every repository instance, so
// wire-up functions take one parameter instead of six.
type Repositories struct {
	User         repository.UserRepository
	Session      repository.SessionRepository
	Friendship   repository.FriendshipRepository
	Post         repository.PostRepository
	Chat         repository.ChatRepository
	Notification repository.NotificationRepository
}

// initRepositories builds every repository from the shared connection pool.
// sql.DB is safe for concurrent use, so sharing it is fine.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:         repository.NewSQLiteUserRepo(conn),
		Session:      repository.NewSQLiteSessionRepo(conn),
		Friendship:   repository.NewSQLiteFriendshipRepo(conn),
		Post:         repository.NewSQLitePostRepo(conn),
		Chat:         repository.NewSQLiteChatRepo(conn),
		Notification: repository.NewSQLiteNotificationRepo(conn),
	}
}
