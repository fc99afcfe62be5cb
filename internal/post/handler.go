package post

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shopworks/storeapi/internal/auth"
	"github.com/shopworks/storeapi/internal/httputil"
	"github.com/shopworks/storeapi/internal/logging"
)

// Handler contains HTTP handlers for posts, comments, and likes
type Handler struct {
	store  Store
	logger *logging.Logger
}

func NewHandler(store Store, logger *logging.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// CreatePostRequest represents the post creation request body
type CreatePostRequest struct {
	Body string `json:"body"`
}

// CreateCommentRequest represents the comment creation request body
type CreateCommentRequest struct {
	PostID int64  `json:"post_id"`
	Body   string `json:"body"`
}

// CreatePost creates a post
// @Summary      Create a post
// @Tags         post
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreatePostRequest true "Post body"
// @Success      201 {object} Post
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /post [post]
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Body == "" {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.store.CreatePost(r.Context(), current.ID, req.Body)
	if err != nil {
		logger.Error("failed to create post", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create post", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("post created", "post_id", created.ID, "user_id", current.ID)

	httputil.RespondJSON(w, created, http.StatusCreated)
}

// ListPosts lists all posts
// @Summary      List posts
// @Tags         post
// @Produce      json
// @Param        sorting query string false "Sort order: new, old, most_likes"
// @Success      200 {array} Post
// @Router       /post [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	sorting := Sorting(r.URL.Query().Get("sorting"))
	switch sorting {
	case "", SortNew, SortOld, SortMostLikes:
	default:
		httputil.RespondErrorWithCode(w, "invalid sorting parameter", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	posts, err := h.store.ListPosts(r.Context(), sorting)
	if err != nil {
		logger.Error("failed to list posts", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list posts", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, posts, http.StatusOK)
}

// GetPost returns a post with its comments
// @Summary      Get a post with comments
// @Tags         post
// @Produce      json
// @Param        postID path int true "Post ID"
// @Success      200 {object} PostWithComments
// @Failure      404 {object} httputil.ErrorResponse "Post not found"
// @Router       /post/{postID} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid post id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	found, err := h.store.GetPost(r.Context(), postID)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			httputil.RespondErrorWithCode(w, "post not found", httputil.CodePostNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get post", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get post", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	comments, err := h.store.ListComments(r.Context(), postID)
	if err != nil {
		logger.Error("failed to list comments", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get post", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, PostWithComments{Post: *found, Comments: comments}, http.StatusOK)
}

// CreateComment adds a comment to a post
// @Summary      Comment on a post
// @Tags         post
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateCommentRequest true "Comment"
// @Success      201 {object} Comment
// @Failure      404 {object} httputil.ErrorResponse "Post not found"
// @Router       /comment [post]
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Body == "" {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, err := h.store.CreateComment(r.Context(), req.PostID, current.ID, req.Body)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			httputil.RespondErrorWithCode(w, "post not found", httputil.CodePostNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to create comment", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to create comment", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("comment created", "comment_id", created.ID, "post_id", req.PostID)

	httputil.RespondJSON(w, created, http.StatusCreated)
}

// ListComments lists the comments on a post
// @Summary      List comments on a post
// @Tags         post
// @Produce      json
// @Param        postID path int true "Post ID"
// @Success      200 {array} Comment
// @Failure      404 {object} httputil.ErrorResponse "Post not found"
// @Router       /post/{postID}/comment [get]
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid post id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	comments, err := h.store.ListComments(r.Context(), postID)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			httputil.RespondErrorWithCode(w, "post not found", httputil.CodePostNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to list comments", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list comments", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, comments, http.StatusOK)
}

// LikePost records a like on a post
// @Summary      Like a post
// @Tags         post
// @Produce      json
// @Security     BearerAuth
// @Param        postID path int true "Post ID"
// @Success      201 {object} map[string]string
// @Failure      404 {object} httputil.ErrorResponse "Post not found"
// @Failure      409 {object} httputil.ErrorResponse "Already liked"
// @Router       /post/{postID}/like [post]
func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	postID, err := strconv.ParseInt(chi.URLParam(r, "postID"), 10, 64)
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid post id", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.store.LikePost(r.Context(), postID, current.ID); err != nil {
		switch {
		case errors.Is(err, ErrPostNotFound):
			httputil.RespondErrorWithCode(w, "post not found", httputil.CodePostNotFound, http.StatusNotFound)
		case errors.Is(err, ErrAlreadyLiked):
			httputil.RespondErrorWithCode(w, "post already liked", httputil.CodeInvalidRequestBody, http.StatusConflict)
		default:
			logger.Error("failed to like post", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to like post", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("post liked", "post_id", postID, "user_id", current.ID)

	httputil.RespondJSON(w, map[string]string{"detail": "Post liked"}, http.StatusCreated)
}
