package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/qaapi/internal/client/models"
	"github.com/dmitrijs2005/qaapi/internal/common"
)

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *APIClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithRetry(2, time.Millisecond)}, opts...)
	c := NewAPIClient(srv.URL+"/", opts...)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestAPIClient_LoginAndMe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "Secret123!" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized", "detail": "incorrect username or password"})
			return
		}
		writeJSON(w, http.StatusOK, models.TokenPair{AccessToken: "acc", RefreshToken: "ref", TokenType: "bearer", ExpiresIn: 1800})
	})
	mux.HandleFunc("GET /api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer acc", r.Header.Get("Authorization"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		writeJSON(w, http.StatusOK, models.User{ID: 7, Username: "alice", IsActive: true})
	})

	var observed []models.TokenPair
	c := newTestClient(t, mux, WithTokenObserver(func(p models.TokenPair) { observed = append(observed, p) }))
	ctx := context.Background()

	_, err := c.Me(ctx)
	require.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = c.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "incorrect username or password", apiErr.Detail)

	pair, err := c.Login(ctx, "alice", "Secret123!")
	require.NoError(t, err)
	assert.Equal(t, int64(1800), pair.ExpiresIn)
	assert.Equal(t, "ref", c.Tokens().RefreshToken)
	require.Len(t, observed, 1)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), me.ID)
}

func TestAPIClient_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "Service Unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
	})

	c := newTestClient(t, h)
	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestAPIClient_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"detail": "Rate limit exceeded. Try again later.", "limit": 100, "period_seconds": 60})
	})

	c := newTestClient(t, h)
	resp, err := c.Do(context.Background(), http.MethodGet, "/health", nil, nil)
	require.NoError(t, err, "statuses are not transport errors")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load(), "first attempt plus two retries")

	err = c.Ping(context.Background())
	require.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "Rate limit exceeded")
}

func TestAPIClient_NoRetryOnClientErrors(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not Found", "detail": "user not found", "status_code": 404})
	})

	c := newTestClient(t, h)
	c.SetTokens(models.TokenPair{AccessToken: "acc"})

	_, err := c.GetUser(context.Background(), 99)
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAPIClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewAPIClient(url, WithRetry(1, time.Millisecond))
	err := c.Ping(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestAPIClient_CancelDuringBackoff(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c := newTestClient(t, h, WithRetry(5, time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Do(ctx, http.MethodGet, "/health", nil, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAPIClient_RefreshesOnUnauthorized(t *testing.T) {
	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["refresh_token"] != "ref" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, models.TokenPair{AccessToken: "fresh", TokenType: "bearer", ExpiresIn: 1800})
	})
	mux.HandleFunc("GET /api/v1/users/count", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Unauthorized", "detail": "token expired"})
			return
		}
		assert.Equal(t, "true", r.URL.Query().Get("is_active"))
		writeJSON(w, http.StatusOK, map[string]any{"count": 3, "is_active": true})
	})

	var observed models.TokenPair
	c := newTestClient(t, mux, WithTokenObserver(func(p models.TokenPair) { observed = p }))
	c.SetTokens(models.TokenPair{AccessToken: "stale", RefreshToken: "ref"})

	active := true
	n, err := c.CountUsers(context.Background(), &active)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, "fresh", observed.AccessToken)
	assert.Equal(t, "ref", observed.RefreshToken, "refresh token is kept")

	c.SetTokens(models.TokenPair{AccessToken: "stale", RefreshToken: "bogus"})
	_, err = c.CountUsers(context.Background(), nil)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Equal(t, int32(2), refreshes.Load())

	c.SetTokens(models.TokenPair{AccessToken: "stale"})
	_, err = c.CountUsers(context.Background(), nil)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Equal(t, int32(2), refreshes.Load(), "no refresh without a refresh token")
}

func TestAPIClient_UserManagement(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "skip=1&limit=2", "skip="+r.URL.Query().Get("skip")+"&limit="+r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, []models.User{{ID: 2, Username: "testuser"}, {ID: 3, Username: "john_doe"}})
	})
	mux.HandleFunc("PUT /api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "is_active")
		writeJSON(w, http.StatusOK, models.User{ID: 1, Email: body["email"].(string)})
	})
	mux.HandleFunc("POST /api/v1/users/3/deactivate", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.User{ID: 3, IsActive: false})
	})
	mux.HandleFunc("POST /api/v1/users/3/activate", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.User{ID: 3, IsActive: true})
	})
	mux.HandleFunc("DELETE /api/v1/users/3", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /api/v1/users/1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Bad Request", "detail": "cannot delete yourself"})
	})
	mux.HandleFunc("POST /api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
	})

	c := newTestClient(t, mux)
	c.SetTokens(models.TokenPair{AccessToken: "acc", RefreshToken: "ref"})
	ctx := context.Background()

	users, err := c.ListUsers(ctx, models.UserQuery{Skip: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "john_doe", users[1].Username)

	email := "new@x.com"
	active := false
	me, err := c.UpdateMe(ctx, models.UserUpdate{Email: &email, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, email, me.Email)

	u, err := c.SetUserActive(ctx, 3, false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	u, err = c.SetUserActive(ctx, 3, true)
	require.NoError(t, err)
	assert.True(t, u.IsActive)

	require.NoError(t, c.DeleteUser(ctx, 3))
	require.ErrorIs(t, c.DeleteUser(ctx, 1), common.ErrorBadRequest)

	require.NoError(t, c.Logout(ctx))
	assert.Equal(t, models.TokenPair{}, c.Tokens())
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, common.ErrorUnauthorized},
		{http.StatusForbidden, common.ErrorForbidden},
		{http.StatusNotFound, common.ErrorNotFound},
		{http.StatusConflict, common.ErrorConflict},
		{http.StatusUnprocessableEntity, common.ErrorValidation},
		{http.StatusBadRequest, common.ErrorBadRequest},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusInternalServerError, ErrUnavailable},
	}
	for _, tt := range tests {
		err := newAPIError(&Response{StatusCode: tt.code, Body: []byte("not json")})
		assert.ErrorIs(t, err, tt.want, tt.code)
		assert.Equal(t, http.StatusText(tt.code), err.Message)
	}

	err := newAPIError(&Response{StatusCode: 422, Body: []byte(`{"error":"Validation Error","detail":{"email":"must be a valid email address"}}`)})
	assert.Equal(t, "Validation Error", err.Message)
	assert.Contains(t, err.Error(), "must be a valid email address")
	assert.Nil(t, (&APIError{StatusCode: http.StatusTeapot}).Unwrap())
}
