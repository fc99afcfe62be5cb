package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"github.com/shopworks/storeapi/internal/database"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrAlreadyLiked = errors.New("post already liked")
)

// Store is the persistence surface the handlers consume.
type Store interface {
	CreatePost(ctx context.Context, userID int64, body string) (*Post, error)
	GetPost(ctx context.Context, postID int64) (*Post, error)
	ListPosts(ctx context.Context, sorting Sorting) ([]Post, error)
	CreateComment(ctx context.Context, postID, userID int64, body string) (*Comment, error)
	ListComments(ctx context.Context, postID int64) ([]Comment, error)
	LikePost(ctx context.Context, postID, userID int64) error
}

// Repository handles post, comment, and like persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// CreatePost inserts a new post
func (r *Repository) CreatePost(ctx context.Context, userID int64, body string) (*Post, error) {
	dbPost := &database.Post{
		UserID: userID,
		Body:   body,
	}

	_, err := r.db.NewInsert().
		Model(dbPost).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return mapDBPostToModel(dbPost), nil
}

// GetPost retrieves a single post with its like count
func (r *Repository) GetPost(ctx context.Context, postID int64) (*Post, error) {
	dbPost := new(database.Post)
	err := r.db.NewSelect().
		Model(dbPost).
		ColumnExpr("p.*").
		ColumnExpr("COUNT(l.id) AS likes").
		Join("LEFT JOIN likes AS l ON l.post_id = p.id").
		Where("p.id = ?", postID).
		Group("p.id").
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return mapDBPostToModel(dbPost), nil
}

// ListPosts retrieves all posts with like counts in the requested order
func (r *Repository) ListPosts(ctx context.Context, sorting Sorting) ([]Post, error) {
	var dbPosts []database.Post

	q := r.db.NewSelect().
		Model(&dbPosts).
		ColumnExpr("p.*").
		ColumnExpr("COUNT(l.id) AS likes").
		Join("LEFT JOIN likes AS l ON l.post_id = p.id").
		Group("p.id")

	switch sorting {
	case SortOld:
		q = q.Order("p.id ASC")
	case SortMostLikes:
		q = q.OrderExpr("likes DESC, p.id DESC")
	default:
		q = q.Order("p.id DESC")
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	posts := make([]Post, 0, len(dbPosts))
	for i := range dbPosts {
		posts = append(posts, *mapDBPostToModel(&dbPosts[i]))
	}
	return posts, nil
}

// CreateComment inserts a comment after verifying the post exists
func (r *Repository) CreateComment(ctx context.Context, postID, userID int64, body string) (*Comment, error) {
	exists, err := r.db.NewSelect().
		Model((*database.Post)(nil)).
		Where("id = ?", postID).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	dbComment := &database.Comment{
		PostID: postID,
		UserID: userID,
		Body:   body,
	}

	_, err = r.db.NewInsert().
		Model(dbComment).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return mapDBCommentToModel(dbComment), nil
}

// ListComments retrieves the comments on a post
func (r *Repository) ListComments(ctx context.Context, postID int64) ([]Comment, error) {
	exists, err := r.db.NewSelect().
		Model((*database.Post)(nil)).
		Where("id = ?", postID).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	var dbComments []database.Comment
	err = r.db.NewSelect().
		Model(&dbComments).
		Where("post_id = ?", postID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	comments := make([]Comment, 0, len(dbComments))
	for i := range dbComments {
		comments = append(comments, *mapDBCommentToModel(&dbComments[i]))
	}
	return comments, nil
}

// LikePost records a like. The unique (post_id, user_id) index keeps a user
// from liking the same post twice.
func (r *Repository) LikePost(ctx context.Context, postID, userID int64) error {
	exists, err := r.db.NewSelect().
		Model((*database.Post)(nil)).
		Where("id = ?", postID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return ErrPostNotFound
	}

	dbLike := &database.PostLike{
		PostID: postID,
		UserID: userID,
	}

	_, err = r.db.NewInsert().
		Model(dbLike).
		Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return ErrAlreadyLiked
		}
		return fmt.Errorf("failed to like post: %w", err)
	}

	return nil
}

func mapDBPostToModel(dbp *database.Post) *Post {
	return &Post{
		ID:        dbp.ID,
		UserID:    dbp.UserID,
		Body:      dbp.Body,
		Likes:     dbp.Likes,
		CreatedAt: dbp.CreatedAt,
	}
}

func mapDBCommentToModel(dbc *database.Comment) *Comment {
	return &Comment{
		ID:        dbc.ID,
		PostID:    dbc.PostID,
		UserID:    dbc.UserID,
		Body:      dbc.Body,
		CreatedAt: dbc.CreatedAt,
	}
}
