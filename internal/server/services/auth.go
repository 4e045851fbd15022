// Package services holds the server's use cases. AuthService covers
// registration, login, token refresh and authorization; UserService covers
// profile and administrative operations on principals.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/logging"
	"github.com/dmitrijs2005/qaapi/internal/server/auth"
	"github.com/dmitrijs2005/qaapi/internal/server/models"
	"github.com/dmitrijs2005/qaapi/internal/server/repositories/repomanager"
)

// PasswordHasher is the hashing capability the services rely on.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, digest string) bool
	VerifyDummy(ctx context.Context, password string)
}

type AuthService struct {
	repomanager   repomanager.RepositoryManager
	hasher        PasswordHasher
	codec         *auth.TokenCodec
	authenticator *auth.Authenticator
	gate          *auth.Gate
	logger        logging.Logger
}

func NewAuthService(m repomanager.RepositoryManager, hasher PasswordHasher, codec *auth.TokenCodec, logger logging.Logger) *AuthService {
	store := m.Users()
	return &AuthService{
		repomanager:   m,
		hasher:        hasher,
		codec:         codec,
		authenticator: auth.NewAuthenticator(store, hasher, logger),
		gate:          auth.NewGate(codec, store, logger),
		logger:        logger.With("module", "auth_service"),
	}
}

// Register validates req, hashes the password once and inserts an active,
// non-superuser principal. Duplicate usernames or emails are reported by
// the store as common.ErrorConflict.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, err
		}
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: digest,
		IsActive:     true,
	}
	created, err := s.repomanager.Users().Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, err
		}
		s.logger.Error(ctx, "user insert failed", "username", req.Username, "error", err)
		return nil, fmt.Errorf("error creating user: %w", common.ErrorInternal)
	}

	s.logger.Info(ctx, "user registered", "username", created.Username, "user_id", created.ID)
	return created, nil
}

// Login authenticates the pair and issues an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*models.TokenPair, error) {
	user, err := s.authenticator.Authenticate(ctx, identifier, password)
	if err != nil {
		return nil, err
	}

	access, err := s.codec.IssueAccess(user.Username, auth.DefaultScopes)
	if err != nil {
		s.logger.Error(ctx, "issue access token", "error", err)
		return nil, common.ErrorInternal
	}
	refresh, err := s.codec.IssueRefresh(user.Username)
	if err != nil {
		s.logger.Error(ctx, "issue refresh token", "error", err)
		return nil, common.ErrorInternal
	}

	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    common.TokenTypeBearer,
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
	}, nil
}

// Refresh exchanges a valid refresh token of an active principal for a new
// access token. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	user, err := s.gate.ResolveRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	access, err := s.codec.IssueAccess(user.Username, auth.DefaultScopes)
	if err != nil {
		s.logger.Error(ctx, "issue access token", "error", err)
		return nil, common.ErrorInternal
	}

	return &models.TokenPair{
		AccessToken: access,
		TokenType:   common.TokenTypeBearer,
		ExpiresIn:   int64(s.codec.AccessTTL().Seconds()),
	}, nil
}

// Authorize resolves an access token to a principal satisfying every
// predicate.
func (s *AuthService) Authorize(ctx context.Context, token string, predicates ...auth.Predicate) (*models.User, error) {
	return s.gate.Authorize(ctx, token, predicates...)
}
