package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/denizoku/pulse/models"
	"github.com/denizoku/pulse/pkg"
	"github.com/denizoku/pulse/repository"
)

// PostService manages posts, likes and comments. Likes and comments on
// someone else's post notify the author; actions on your own post do not.
type PostService interface {
	CreatePost(ctx context.Context, authorID string, req *models.CreatePostRequest) (*models.Post, error)
	GetPost(ctx context.Context, postID, viewerID string) (*models.Post, error)
	ListPosts(ctx context.Context, viewerID, beforeID string, limit int) (*models.PostPage, error)
	DeletePost(ctx context.Context, postID, authorID string) error
	// ToggleLike likes the post if unliked and unlikes it otherwise.
	// Reports whether the post is liked after the call.
	ToggleLike(ctx context.Context, postID, userID string) (bool, error)
	AddComment(ctx context.Context, postID, authorID string, req *models.CreateCommentRequest) (*models.Comment, error)
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
}

type postService struct {
	postRepo      repository.PostRepository
	userRepo      repository.UserRepository
	notifications NotificationService
}

// NewPostService builds the post service.
func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notifications NotificationService,
) PostService {
	return &postService{
		postRepo:      postRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

func (s *postService) CreatePost(ctx context.Context, authorID string, req *models.CreatePostRequest) (*models.Post, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	post := &models.Post{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Title:    req.Title,
		Content:  req.Content,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	// Reload with author join so the response matches list output.
	return s.postRepo.GetByID(ctx, post.ID, authorID)
}

func (s *postService) GetPost(ctx context.Context, postID, viewerID string) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID, viewerID)
}

func (s *postService) ListPosts(ctx context.Context, viewerID, beforeID string, limit int) (*models.PostPage, error) {
	return s.postRepo.List(ctx, viewerID, beforeID, limit)
}

func (s *postService) DeletePost(ctx context.Context, postID, authorID string) error {
	return s.postRepo.Delete(ctx, postID, authorID)
}

func (s *postService) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return false, err
	}

	if post.Liked {
		if _, err := s.postRepo.Unlike(ctx, postID, userID); err != nil {
			return false, err
		}
		return false, nil
	}

	inserted, err := s.postRepo.Like(ctx, postID, userID)
	if err != nil {
		return false, err
	}
	// Only a fresh like on someone else's post notifies. Re-liking after
	// an unlike notifies again; we accept that.
	if inserted && post.AuthorID != userID {
		liker, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			log.Printf("[posts] skipping like notification for user %s, liker lookup failed: %v", post.AuthorID, err)
			return true, nil
		}
		notifyOrLog(ctx, s.notifications, &models.Notification{
			RecipientID: post.AuthorID,
			SenderID:    &liker.ID,
			Kind:        models.KindLike,
			SubjectRef:  post.ID,
			PreviewText: fmt.Sprintf("%s liked your post %q", liker.Username, post.Title),
		})
	}
	return true, nil
}

func (s *postService) AddComment(ctx context.Context, postID, authorID string, req *models.CreateCommentRequest) (*models.Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	post, err := s.postRepo.GetByID(ctx, postID, authorID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:       uuid.NewString(),
		PostID:   postID,
		AuthorID: authorID,
		Body:     req.Body,
	}
	if err := s.postRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	commenter, err := s.userRepo.GetByID(ctx, authorID)
	if err != nil {
		log.Printf("[posts] skipping comment notification for user %s, commenter lookup failed: %v", post.AuthorID, err)
		return comment, nil
	}
	comment.Author = commenter

	if post.AuthorID != authorID {
		notifyOrLog(ctx, s.notifications, &models.Notification{
			RecipientID: post.AuthorID,
			SenderID:    &commenter.ID,
			Kind:        models.KindComment,
			SubjectRef:  post.ID,
			PreviewText: fmt.Sprintf("%s commented: %s", commenter.Username, comment.Body),
		})
	}
	return comment, nil
}

func (s *postService) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, ""); err != nil {
		return nil, err
	}
	return s.postRepo.ListComments(ctx, postID)
}
