package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopworks/storeapi/internal/httputil"
	"github.com/shopworks/storeapi/internal/logging"
	"github.com/shopworks/storeapi/internal/token"
)

// Limiter is the subset of the rate limiter the auth handlers need,
// abstracted so handlers can be tested without redis.
type Limiter interface {
	Allow(ctx context.Context, ip, purpose string) (bool, error)
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service *Service
	limiter Limiter
	logger  *logging.Logger
}

func NewHandler(service *Service, limiter Limiter, logger *logging.Logger) *Handler {
	return &Handler{
		service: service,
		limiter: limiter,
		logger:  logger,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Confirmed bool   `json:"confirmed"`
}

// RegisterResponse represents the registration response
type RegisterResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// TokenResponse carries the issued bearer token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new account. A confirmation email is sent out of band.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration credentials"
// @Success      201 {object} RegisterResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already registered"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allow(w, r, "register") {
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	newUser, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailAlreadyRegistered):
			logger.Warn("registration failed: email already registered")
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailAlreadyRegistered, http.StatusConflict)
		case errors.Is(err, ErrEmailRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered", "user_id", newUser.ID)

	httputil.RespondJSON(w, RegisterResponse{
		User: UserResponse{
			ID:        newUser.ID,
			Email:     newUser.Email,
			Confirmed: newUser.Confirmed,
		},
		Message: "Registration successful. Please check your email to confirm your account.",
	}, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate and receive a bearer access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} TokenResponse
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      403 {object} httputil.ErrorResponse "Email not confirmed"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allow(w, r, "login") {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	accessToken, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		// Unknown email and wrong password look identical to the client.
		case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrBadCredentials):
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		case errors.Is(err, ErrEmailNotConfirmed):
			logger.Warn("login failed: email not confirmed")
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailNotConfirmed, http.StatusForbidden)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user logged in")

	httputil.RespondJSON(w, TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	}, http.StatusOK)
}

// Confirm redeems an email confirmation token
// @Summary      Confirm email address
// @Tags         auth
// @Produce      json
// @Param        token query string true "Confirmation token"
// @Success      200 {object} map[string]string
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired token"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /auth/confirm [get]
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	confirmationToken := r.URL.Query().Get("token")
	if confirmationToken == "" {
		httputil.RespondErrorWithCode(w, "missing confirmation token", httputil.CodeInvalidToken, http.StatusBadRequest)
		return
	}

	if err := h.service.ConfirmEmail(r.Context(), confirmationToken); err != nil {
		respondTokenError(w, logger, err)
		return
	}

	logger.Info("email confirmed")

	httputil.RespondJSON(w, map[string]string{"detail": "User confirmed"}, http.StatusOK)
}

// Me returns the authenticated user
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UserResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	current, ok := GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	httputil.RespondJSON(w, UserResponse{
		ID:        current.ID,
		Email:     current.Email,
		Confirmed: current.Confirmed,
	}, http.StatusOK)
}

// respondTokenError maps token and lookup failures to responses. Each kind
// stays distinguishable so clients can tell "expired, log in again" apart
// from "garbage token" and "account gone".
func respondTokenError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, token.ErrExpired):
		logger.Warn("token rejected: expired")
		httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
	case errors.Is(err, token.ErrWrongTokenType):
		logger.Warn("token rejected: wrong type", "error", err.Error())
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeWrongTokenType, http.StatusUnauthorized)
	case errors.Is(err, token.ErrInvalidToken), errors.Is(err, token.ErrMissingSubject):
		logger.Warn("token rejected: invalid")
		httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
	case errors.Is(err, ErrUserNotFound):
		logger.Warn("token valid but user not found")
		httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
	default:
		logger.Error("token handling failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "internal error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

// allow applies the per-purpose IP rate limit. Limiter errors fail open.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, purpose string) bool {
	if h.limiter == nil {
		return true
	}

	logger := logging.GetLoggerFromContext(r.Context())
	ip := clientIP(r)

	allowed, err := h.limiter.Allow(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("rate limit check failed", "error", err.Error())
		return true
	}
	if !allowed {
		logger.Warn("rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return false
	}
	return true
}

// clientIP extracts the client IP address from the request
func clientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
