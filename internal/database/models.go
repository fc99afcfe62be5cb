package database

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the users table row. Email carries a unique index; that index is
// what actually rejects a concurrent duplicate registration.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Confirmed    bool      `bun:"confirmed,notnull,default:false"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Post is the posts table row.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    int64     `bun:"user_id,notnull"`
	Body      string    `bun:"body,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`

	// Scanned from an aggregate, not a column.
	Likes int64 `bun:"likes,scanonly"`
}

// Comment is the comments table row.
type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:c"`

	ID        int64     `bun:"id,pk,autoincrement"`
	PostID    int64     `bun:"post_id,notnull"`
	UserID    int64     `bun:"user_id,notnull"`
	Body      string    `bun:"body,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// PostLike is the likes table row. (post_id, user_id) is unique so a user
// can like a post at most once.
type PostLike struct {
	bun.BaseModel `bun:"table:likes,alias:l"`

	ID        int64     `bun:"id,pk,autoincrement"`
	PostID    int64     `bun:"post_id,notnull,unique:likes_post_user"`
	UserID    int64     `bun:"user_id,notnull,unique:likes_post_user"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
