package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/denizoku/pulse/database"
	"github.com/denizoku/pulse/models"
	"github.com/denizoku/pulse/pkg"
)

const (
	defaultPostLimit = 20
	maxPostLimit     = 50
)

type sqlitePostRepo struct {
	db database.TxQuerier
}

// NewSQLitePostRepo returns the SQLite-backed PostRepository.
func NewSQLitePostRepo(db database.TxQuerier) PostRepository {
	return &sqlitePostRepo{db: db}
}

func (r *sqlitePostRepo) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, author_id, title, content)
		VALUES (?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		post.ID,
		post.AuthorID,
		post.Title,
		post.Content,
	).Scan(&post.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

const postSelect = `
	SELECT p.id, p.author_id, p.title, p.content, p.created_at,
	       u.id, u.username, u.display_name,
	       (SELECT COUNT(*) FROM post_likes l WHERE l.post_id = p.id),
	       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id),
	       EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = p.id AND l.user_id = ?)
	FROM posts p
	JOIN users u ON u.id = p.author_id`

func (r *sqlitePostRepo) GetByID(ctx context.Context, id, viewerID string) (*models.Post, error) {
	query := postSelect + ` WHERE p.id = ?`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, viewerID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

func (r *sqlitePostRepo) List(ctx context.Context, viewerID, beforeID string, limit int) (*models.PostPage, error) {
	if limit <= 0 {
		limit = defaultPostLimit
	}
	if limit > maxPostLimit {
		limit = maxPostLimit
	}

	query := postSelect
	args := []any{viewerID}
	if beforeID != "" {
		query += `
	WHERE (p.created_at, p.id) < (SELECT created_at, id FROM posts WHERE id = ?)`
		args = append(args, beforeID)
	}
	query += `
	ORDER BY p.created_at DESC, p.id DESC
	LIMIT ?`
	args = append(args, limit+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	page := &models.PostPage{Posts: []models.Post{}}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		page.Posts = append(page.Posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate post rows: %w", err)
	}

	if len(page.Posts) > limit {
		page.Posts = page.Posts[:limit]
		page.HasMore = true
	}
	return page, nil
}

func (r *sqlitePostRepo) Delete(ctx context.Context, id, authorID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ? AND author_id = ?`, id, authorID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return pkg.ErrNotFound
	}
	return nil
}

func (r *sqlitePostRepo) Like(ctx context.Context, postID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO post_likes (post_id, user_id) VALUES (?, ?)`,
		postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to like post: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *sqlitePostRepo) Unlike(ctx context.Context, postID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`,
		postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to unlike post: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *sqlitePostRepo) CreateComment(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, post_id, author_id, body)
		VALUES (?, ?, ?, ?)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		comment.ID,
		comment.PostID,
		comment.AuthorID,
		comment.Body,
	).Scan(&comment.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *sqlitePostRepo) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.author_id, c.body, c.created_at,
		       u.id, u.username, u.display_name
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ?
		ORDER BY c.created_at ASC, c.id ASC`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		var author models.User
		var displayName sql.NullString
		err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt,
			&author.ID, &author.Username, &displayName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", err)
		}
		if displayName.Valid {
			author.DisplayName = &displayName.String
		}
		c.Author = &author
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comment rows: %w", err)
	}
	return comments, nil
}

func scanPost(row rowScanner) (*models.Post, error) {
	post := &models.Post{}
	author := models.User{}
	var displayName sql.NullString

	err := row.Scan(
		&post.ID, &post.AuthorID, &post.Title, &post.Content, &post.CreatedAt,
		&author.ID, &author.Username, &displayName,
		&post.LikesCount, &post.CommentsCount, &post.Liked,
	)
	if err != nil {
		return nil, err
	}

	if displayName.Valid {
		author.DisplayName = &displayName.String
	}
	post.Author = &author
	return post, nil
}
