package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/qaapi/internal/client/models"
)

const (
	apiPrefix = "/api/v1"
	userAgent = "qaapi-client/1.0"
)

// APIClient talks to the REST API over HTTP. It keeps the bearer session,
// refreshes the access token once on a 401 when a refresh token is held,
// and retries transport failures, 429 and 5xx responses with exponential
// backoff. Safe for concurrent use.
type APIClient struct {
	baseURL    string
	http       *http.Client
	maxRetries int
	baseDelay  time.Duration
	onTokens   func(models.TokenPair)

	mu     sync.RWMutex
	tokens models.TokenPair
}

var _ Client = (*APIClient)(nil)

type Option func(*APIClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *APIClient) { c.http = h }
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *APIClient) { c.http.Timeout = d }
}

// WithRetry sets the retry budget. Delays start at base and double.
func WithRetry(maxRetries int, base time.Duration) Option {
	return func(c *APIClient) {
		c.maxRetries = maxRetries
		c.baseDelay = base
	}
}

// WithTokenObserver registers fn to be called whenever the session tokens
// change, including after an automatic refresh.
func WithTokenObserver(fn func(models.TokenPair)) Option {
	return func(c *APIClient) { c.onTokens = fn }
}

func NewAPIClient(baseURL string, opts ...Option) *APIClient {
	c := &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
		baseDelay:  time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.baseDelay <= 0 {
		c.baseDelay = time.Millisecond
	}
	return c
}

func (c *APIClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *APIClient) Tokens() models.TokenPair {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

func (c *APIClient) SetTokens(p models.TokenPair) {
	c.mu.Lock()
	c.tokens = p
	c.mu.Unlock()
}

func (c *APIClient) storeTokens(p models.TokenPair) {
	c.SetTokens(p)
	if c.onTokens != nil {
		c.onTokens(p)
	}
}

// Do sends one logical request. Non-2xx responses are returned, not turned
// into errors; the error is reserved for transport failures and
// cancellation. path is relative to the base URL.
func (c *APIClient) Do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.canRefresh(path) {
		if err := c.Refresh(ctx); err != nil {
			return resp, nil
		}
		return c.send(ctx, method, path, query, body)
	}
	return resp, nil
}

func (c *APIClient) canRefresh(path string) bool {
	if strings.HasPrefix(path, apiPrefix+"/auth/login") || strings.HasPrefix(path, apiPrefix+"/auth/refresh") {
		return false
	}
	return c.Tokens().RefreshToken != ""
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (c *APIClient) send(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var (
		payload     []byte
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case url.Values:
		payload = []byte(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		payload = data
		contentType = "application/json"
	}

	var last *Response
	backoff := retry.WithMaxRetries(uint64(c.maxRetries), retry.NewExponential(c.baseDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := c.attempt(ctx, method, target, contentType, payload)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return retry.RetryableError(fmt.Errorf("%w: %v", ErrUnavailable, err))
		}
		last = resp
		if retryableStatus(resp.StatusCode) {
			return retry.RetryableError(errRetryStatus)
		}
		return nil
	})
	if errors.Is(err, errRetryStatus) {
		return last, nil
	}
	if err != nil {
		return nil, err
	}
	return last, nil
}

func (c *APIClient) attempt(ctx context.Context, method, target, contentType string, payload []byte) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.Tokens().AccessToken; tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Elapsed:    time.Since(start),
	}, nil
}

// call performs the request and decodes a response with status want into
// out. Any other status becomes an *APIError.
func (c *APIClient) call(ctx context.Context, method, path string, query url.Values, body any, want int, out any) error {
	resp, err := c.Do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if resp.StatusCode != want {
		return newAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return resp.JSON(out)
}

func (c *APIClient) requireSession() error {
	t := c.Tokens()
	if t.AccessToken == "" && t.RefreshToken == "" {
		return ErrNotLoggedIn
	}
	return nil
}

// Ping checks GET /health.
func (c *APIClient) Ping(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, nil, http.StatusOK, nil)
}

func (c *APIClient) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var u models.User
	if err := c.call(ctx, http.MethodPost, apiPrefix+"/auth/register", nil, req, http.StatusCreated, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login uses the OAuth2 password form and stores the returned tokens.
func (c *APIClient) Login(ctx context.Context, username, password string) (*models.TokenPair, error) {
	form := url.Values{"username": {username}, "password": {password}}

	var pair models.TokenPair
	if err := c.call(ctx, http.MethodPost, apiPrefix+"/auth/login", nil, form, http.StatusOK, &pair); err != nil {
		return nil, err
	}
	c.storeTokens(pair)
	return &pair, nil
}

// Refresh exchanges the held refresh token for a new access token. The
// refresh token itself is kept since the server does not rotate it.
func (c *APIClient) Refresh(ctx context.Context) error {
	current := c.Tokens()
	if current.RefreshToken == "" {
		return ErrNotLoggedIn
	}

	resp, err := c.send(ctx, http.MethodPost, apiPrefix+"/auth/refresh", nil,
		map[string]string{"refresh_token": current.RefreshToken})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return newAPIError(resp)
	}

	var pair models.TokenPair
	if err := resp.JSON(&pair); err != nil {
		return err
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = current.RefreshToken
	}
	c.storeTokens(pair)
	return nil
}

// Logout notifies the server and drops the local session even when the
// call fails.
func (c *APIClient) Logout(ctx context.Context) error {
	err := c.call(ctx, http.MethodPost, apiPrefix+"/auth/logout", nil, nil, http.StatusOK, nil)
	c.storeTokens(models.TokenPair{})
	return err
}

func (c *APIClient) VerifyToken(ctx context.Context) (*models.TokenCheck, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var tc models.TokenCheck
	if err := c.call(ctx, http.MethodGet, apiPrefix+"/auth/verify-token", nil, nil, http.StatusOK, &tc); err != nil {
		return nil, err
	}
	return &tc, nil
}

func (c *APIClient) Me(ctx context.Context) (*models.User, error) {
	return c.user(ctx, http.MethodGet, apiPrefix+"/users/me", nil)
}

func (c *APIClient) UpdateMe(ctx context.Context, upd models.UserUpdate) (*models.User, error) {
	upd.IsActive = nil
	return c.user(ctx, http.MethodPut, apiPrefix+"/users/me", upd)
}

func (c *APIClient) ListUsers(ctx context.Context, q models.UserQuery) ([]models.User, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var users []models.User
	if err := c.call(ctx, http.MethodGet, apiPrefix+"/users", q.Values(), nil, http.StatusOK, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *APIClient) CountUsers(ctx context.Context, isActive *bool) (int, error) {
	if err := c.requireSession(); err != nil {
		return 0, err
	}
	query := url.Values{}
	if isActive != nil {
		query.Set("is_active", strconv.FormatBool(*isActive))
	}

	var out struct {
		Count int `json:"count"`
	}
	if err := c.call(ctx, http.MethodGet, apiPrefix+"/users/count", query, nil, http.StatusOK, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *APIClient) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return c.user(ctx, http.MethodGet, userPath(id, ""), nil)
}

func (c *APIClient) UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error) {
	return c.user(ctx, http.MethodPut, userPath(id, ""), upd)
}

func (c *APIClient) DeleteUser(ctx context.Context, id int64) error {
	if err := c.requireSession(); err != nil {
		return err
	}
	return c.call(ctx, http.MethodDelete, userPath(id, ""), nil, nil, http.StatusNoContent, nil)
}

func (c *APIClient) SetUserActive(ctx context.Context, id int64, active bool) (*models.User, error) {
	action := "/deactivate"
	if active {
		action = "/activate"
	}
	return c.user(ctx, http.MethodPost, userPath(id, action), nil)
}

func (c *APIClient) user(ctx context.Context, method, path string, body any) (*models.User, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var u models.User
	if err := c.call(ctx, method, path, nil, body, http.StatusOK, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func userPath(id int64, suffix string) string {
	return apiPrefix + "/users/" + strconv.FormatInt(id, 10) + suffix
}
