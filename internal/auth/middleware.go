package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopworks/storeapi/internal/httputil"
	"github.com/shopworks/storeapi/internal/logging"
	"github.com/shopworks/storeapi/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	// UserContextKey holds the authenticated *user.User
	UserContextKey ContextKey = "current_user"
)

// Middleware handles authentication for protected routes
type Middleware struct {
	service *Service
}

func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// RequireAuth validates the bearer access token and injects the resolved
// user into the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		current, err := m.service.GetCurrentUser(r.Context(), parts[1])
		if err != nil {
			respondTokenError(w, logger, err)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, current)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserFromContext extracts the authenticated user from the request context
func GetUserFromContext(ctx context.Context) (*user.User, bool) {
	current, ok := ctx.Value(UserContextKey).(*user.User)
	return current, ok
}
