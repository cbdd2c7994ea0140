package repository

import (
	"context"

	"github.com/denizoku/pulse/models"
)

// UserRepository handles account rows.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}
