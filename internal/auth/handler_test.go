package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopworks/storeapi/internal/logging"
)

func newTestRouter(t *testing.T) (*chi.Mux, *fakeSender) {
	t.Helper()

	svc, _, sender := newTestService(t)
	handler := NewHandler(svc, nil, logging.NewLogger(true))
	mw := NewMiddleware(svc)

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
		r.Get("/confirm", handler.Confirm)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)
			r.Get("/me", handler.Me)
		})
	})
	return r, sender
}

func doJSON(t *testing.T, router http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthEndpoints_FullFlow(t *testing.T) {
	t.Parallel()

	router, sender := newTestRouter(t)
	creds := `{"email":"a@x.com","password":"password"}`

	rec := doJSON(t, router, http.MethodPost, "/auth/register", creds, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	confirmationToken := sender.waitForToken(t)

	// Duplicate registration conflicts.
	rec = doJSON(t, router, http.MethodPost, "/auth/register", creds, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Login before confirmation is forbidden.
	rec = doJSON(t, router, http.MethodPost, "/auth/login", creds, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/auth/confirm?token="+confirmationToken, "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/auth/login", creds, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tokens TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokens))
	require.NotEmpty(t, tokens.AccessToken)
	assert.Equal(t, "bearer", tokens.TokenType)

	rec = doJSON(t, router, http.MethodGet, "/auth/me", "", tokens.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var me UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "a@x.com", me.Email)
	assert.True(t, me.Confirmed)

	// Wrong password is a 401.
	rec = doJSON(t, router, http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"nope-nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthEndpoints_TokenFailures(t *testing.T) {
	t.Parallel()

	router, sender := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/auth/me", "", "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A confirmation token must not work as an access token.
	rec = doJSON(t, router, http.MethodPost, "/auth/register", `{"email":"a@x.com","password":"password"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	confirmationToken := sender.waitForToken(t)

	rec = doJSON(t, router, http.MethodGet, "/auth/me", "", confirmationToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "wrong_token_type", resp.Code)
}
