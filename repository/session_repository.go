package repository

import (
	"context"

	"github.com/denizoku/pulse/models"
)

// SessionRepository persists refresh-token sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByRefreshToken(ctx context.Context, refreshToken string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
