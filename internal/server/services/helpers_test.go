package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/qaapi/internal/logging"
	"github.com/dmitrijs2005/qaapi/internal/server/auth"
	"github.com/dmitrijs2005/qaapi/internal/server/models"
	"github.com/dmitrijs2005/qaapi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/qaapi/internal/server/repositories/users"
)

type fixture struct {
	manager *repomanager.MemoryRepositoryManager
	hasher  *auth.PasswordHasher
	codec   *auth.TokenCodec
	auth    *AuthService
	users   *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := repomanager.NewMemoryRepositoryManager()

	h, err := auth.NewPasswordHasher(auth.HasherConfig{BcryptCost: bcrypt.MinCost}, logging.Nop())
	require.NoError(t, err)
	c, err := auth.NewTokenCodec(auth.TokenCodecConfig{Secret: []byte("services-secret")})
	require.NoError(t, err)

	return &fixture{
		manager: m,
		hasher:  h,
		codec:   c,
		auth:    NewAuthService(m, h, c, logging.Nop()),
		users:   NewUserService(m, h, logging.Nop()),
	}
}

func (f *fixture) register(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    username + "@x.com",
		Password: "Secret123!",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) superuser(t *testing.T, username string) *models.User {
	t.Helper()
	u := f.register(t, username)
	u.IsSuperuser = true
	return u
}

// brokenManager serves a repository whose every call fails.
type brokenManager struct {
	repomanager.MemoryRepositoryManager
	repo users.Repository
}

func (b *brokenManager) Users() users.Repository { return b.repo }

type failingRepo struct {
	users.Repository
}

var errDB = errors.New("db down")

func (failingRepo) Create(context.Context, *models.User) (*models.User, error) { return nil, errDB }
func (failingRepo) FindByID(context.Context, int64) (*models.User, error)      { return nil, errDB }
func (failingRepo) FindByUsername(context.Context, string) (*models.User, error) {
	return nil, errDB
}
func (failingRepo) Update(context.Context, int64, models.UserUpdate) (*models.User, error) {
	return nil, errDB
}
func (failingRepo) Delete(context.Context, int64) (bool, error) { return false, errDB }
func (failingRepo) List(context.Context, models.UserFilter) ([]*models.User, error) {
	return nil, errDB
}
func (failingRepo) Count(context.Context, *bool) (int, error) { return 0, errDB }
