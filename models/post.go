package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Post is a user-authored post. LikesCount/CommentsCount/Liked are filled
// by aggregate queries, not stored columns.
type Post struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"author_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	Author        *User     `json:"author,omitempty"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	Liked         bool      `json:"liked"`
}

// Comment is one comment on a post.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	Author    *User     `json:"author,omitempty"`
}

// PostPage is a cursor page of posts, newest first.
type PostPage struct {
	Posts   []Post `json:"posts"`
	HasMore bool   `json:"has_more"`
}

// CreatePostRequest is the new-post payload.
type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Validate checks the new-post payload.
func (r *CreatePostRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Content = strings.TrimSpace(r.Content)
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(r.Title) > 200 {
		return fmt.Errorf("title must be at most 200 characters")
	}
	if r.Content == "" {
		return fmt.Errorf("content is required")
	}
	if utf8.RuneCountInString(r.Content) > 10000 {
		return fmt.Errorf("content must be at most 10000 characters")
	}
	return nil
}

// CreateCommentRequest is the new-comment payload.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// Validate checks the new-comment payload.
func (r *CreateCommentRequest) Validate() error {
	r.Body = strings.TrimSpace(r.Body)
	if r.Body == "" {
		return fmt.Errorf("comment body is required")
	}
	if utf8.RuneCountInString(r.Body) > 2000 {
		return fmt.Errorf("comment body must be at most 2000 characters")
	}
	return nil
}
