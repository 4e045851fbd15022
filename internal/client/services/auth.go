// Package services contains application services for the qaapi test client.
// This file defines the session service: login, registration, logout and
// persistence of the bearer session in the local database.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/qaapi/internal/client/client"
	"github.com/dmitrijs2005/qaapi/internal/client/models"
	"github.com/dmitrijs2005/qaapi/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/dbx"
)

const (
	keyUsername     = "username"
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
)

// AuthService defines session operations for the CLI.
//
// Contract:
//   - Login: authenticate against the server and persist the session.
//   - Restore: load a previously saved session into the client.
//   - SaveTokens: persist new tokens, e.g. after an automatic refresh.
//   - Logout: end the session on the server and wipe it locally.
//
// Password slices are wiped once the call returns.
type AuthService interface {
	Login(ctx context.Context, username string, password []byte) (*models.TokenPair, error)
	Register(ctx context.Context, req models.RegisterRequest, password []byte) (*models.User, error)
	Restore(ctx context.Context) (string, error)
	SaveTokens(ctx context.Context, p models.TokenPair) error
	Logout(ctx context.Context) error
	Username() string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote Client and a
// local SQL database for the session.
type authService struct {
	client client.Client
	db     *sql.DB

	mu       sync.RWMutex
	username string
}

// NewAuthService constructs an AuthService bound to the given API client and DB.
func NewAuthService(client client.Client, db *sql.DB) AuthService {
	return &authService{client: client, db: db}
}

func (a *authService) getMetadataRepo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (a *authService) Username() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.username
}

func (a *authService) setUsername(u string) {
	a.mu.Lock()
	a.username = u
	a.mu.Unlock()
}

// Login authenticates against the server and saves the session.
func (a *authService) Login(ctx context.Context, username string, password []byte) (*models.TokenPair, error) {
	defer common.WipeByteArray(password)

	pair, err := a.client.Login(ctx, username, string(password))
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	if err := a.saveSession(ctx, username, *pair); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	a.setUsername(username)
	return pair, nil
}

// saveSession persists username and tokens in a single transaction.
func (a *authService) saveSession(ctx context.Context, username string, p models.TokenPair) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.getMetadataRepo(tx)
		if err := repo.Set(ctx, keyUsername, username); err != nil {
			return err
		}
		return a.putTokens(ctx, repo, p)
	})
}

func (a *authService) putTokens(ctx context.Context, repo metadata.Repository, p models.TokenPair) error {
	if err := repo.Set(ctx, keyAccessToken, p.AccessToken); err != nil {
		return err
	}
	if p.RefreshToken != "" {
		if err := repo.Set(ctx, keyRefreshToken, p.RefreshToken); err != nil {
			return err
		}
	}
	return nil
}

// SaveTokens persists p. An empty pair clears the stored session.
func (a *authService) SaveTokens(ctx context.Context, p models.TokenPair) error {
	if p.AccessToken == "" && p.RefreshToken == "" {
		a.setUsername("")
		return a.getMetadataRepo(a.db).Clear(ctx)
	}
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return a.putTokens(ctx, a.getMetadataRepo(tx), p)
	})
}

// Restore loads the saved session into the client and returns its username.
// client.ErrNotLoggedIn is returned when nothing is saved.
func (a *authService) Restore(ctx context.Context) (string, error) {
	repo := a.getMetadataRepo(a.db)

	username, err := repo.Get(ctx, keyUsername)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", client.ErrNotLoggedIn
		}
		return "", err
	}

	var p models.TokenPair
	if p.AccessToken, err = repo.Get(ctx, keyAccessToken); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return "", err
	}
	if p.RefreshToken, err = repo.Get(ctx, keyRefreshToken); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return "", err
	}
	if p.AccessToken == "" && p.RefreshToken == "" {
		return "", client.ErrNotLoggedIn
	}
	p.TokenType = common.TokenTypeBearer

	a.client.SetTokens(p)
	a.setUsername(username)
	return username, nil
}

// Register creates a new account on the server.
func (a *authService) Register(ctx context.Context, req models.RegisterRequest, password []byte) (*models.User, error) {
	defer common.WipeByteArray(password)

	req.Password = string(password)
	return a.client.Register(ctx, req)
}

// Logout ends the session on the server and wipes the local copy even when
// the server cannot be reached.
func (a *authService) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	a.setUsername("")
	if cerr := a.getMetadataRepo(a.db).Clear(ctx); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
