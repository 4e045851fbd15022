package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/qaapi/internal/logging"
	"github.com/dmitrijs2005/qaapi/internal/server/auth"
	"github.com/dmitrijs2005/qaapi/internal/server/models"
	"github.com/dmitrijs2005/qaapi/internal/server/ratelimit"
	"github.com/dmitrijs2005/qaapi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/qaapi/internal/server/services"
)

type testAPI struct {
	t       *testing.T
	api     *API
	handler http.Handler
	auth    *services.AuthService
	codec   *auth.TokenCodec
	keys    *auth.APIKeyRegistry
}

func newTestAPI(t *testing.T, limiter ratelimit.Limiter) *testAPI {
	t.Helper()

	m := repomanager.NewMemoryRepositoryManager()
	h, err := auth.NewPasswordHasher(auth.HasherConfig{BcryptCost: bcrypt.MinCost}, logging.Nop())
	require.NoError(t, err)
	c, err := auth.NewTokenCodec(auth.TokenCodecConfig{Secret: []byte("http-secret")})
	require.NoError(t, err)

	as := services.NewAuthService(m, h, c, logging.Nop())
	_, err = as.Seed(context.Background(), services.DefaultSeedUsers)
	require.NoError(t, err)

	keys := auth.NewAPIKeyRegistry(map[string]string{"reporting-key": "reporting"})

	api := NewAPI(Deps{
		Auth:    as,
		Users:   services.NewUserService(m, h, logging.Nop()),
		APIKeys: keys,
		Limiter: limiter,
		Store:   m.Name(),
		Logger:  logging.Nop(),
	})
	return &testAPI{t: t, api: api, handler: api.Handler(), auth: as, codec: c, keys: keys}
}

func (ta *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ta.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ta.t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)
	return rec
}

func (ta *testAPI) loginForm(username, password string) *httptest.ResponseRecorder {
	ta.t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, APIPrefix+"/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)
	return rec
}

func (ta *testAPI) token(username, password string) models.TokenPair {
	ta.t.Helper()
	rec := ta.loginForm(username, password)
	require.Equal(ta.t, http.StatusOK, rec.Code, rec.Body.String())
	var pair models.TokenPair
	require.NoError(ta.t, json.Unmarshal(rec.Body.Bytes(), &pair))
	return pair
}

func (ta *testAPI) adminToken() string { return ta.token("admin", "Admin123!").AccessToken }

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
