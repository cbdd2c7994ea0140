package repository

import (
	"context"

	"github.com/denizoku/pulse/models"
)

// PostRepository persists posts, likes and comments.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	// GetByID loads the post with aggregates; viewerID fills Liked.
	GetByID(ctx context.Context, id, viewerID string) (*models.Post, error)
	// List pages newest-first. beforeID narrows to posts older than the
	// given post; empty means start from the top.
	List(ctx context.Context, viewerID, beforeID string, limit int) (*models.PostPage, error)
	Delete(ctx context.Context, id, authorID string) error

	// Like inserts a like row; reports false when it already existed.
	Like(ctx context.Context, postID, userID string) (bool, error)
	// Unlike removes a like row; reports false when there was none.
	Unlike(ctx context.Context, postID, userID string) (bool, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
}
