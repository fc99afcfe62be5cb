package post

import "time"

// Post is a user post with its like count.
type Post struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Body      string    `json:"body"`
	Likes     int64     `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a comment on a post.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	UserID    int64     `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// PostWithComments is a post together with its comments.
type PostWithComments struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
}

// Sorting controls the order of post listings.
type Sorting string

const (
	SortNew       Sorting = "new"
	SortOld       Sorting = "old"
	SortMostLikes Sorting = "most_likes"
)
