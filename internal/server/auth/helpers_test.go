package auth

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/logging"
	"github.com/dmitrijs2005/qaapi/internal/server/models"
)

func bufferLogger() (logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return logging.NewSlogLogger(slog.New(h)), &buf
}

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(HasherConfig{Algorithm: AlgorithmBcrypt, BcryptCost: bcrypt.MinCost}, logging.Nop())
	require.NoError(t, err)
	return h
}

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec(TokenCodecConfig{Secret: []byte("test-secret")})
	require.NoError(t, err)
	return c
}

// fakeStore is a map-backed CredentialStore.
type fakeStore struct {
	users map[string]*models.User
	err   error
	calls int
}

func (f *fakeStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func storeWith(users ...*models.User) *fakeStore {
	s := &fakeStore{users: map[string]*models.User{}}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s
}
