package auth

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/logging"
	"github.com/dmitrijs2005/qaapi/internal/server/models"
)

// Reasons recorded in the log when a login is refused. Callers only ever
// see common.ErrorUnauthorized.
const (
	ReasonUserNotFound = "user_not_found"
	ReasonBadPassword  = "bad_password"
	ReasonInactive     = "inactive"
)

// CredentialStore is the lookup the authenticator and gate need.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// Verifier checks plaintexts against stored digests.
type Verifier interface {
	Verify(ctx context.Context, password, digest string) bool
	VerifyDummy(ctx context.Context, password string)
}

// Authenticator decides whether a username/password pair identifies an
// active principal.
type Authenticator struct {
	store    CredentialStore
	verifier Verifier
	logger   logging.Logger
}

func NewAuthenticator(store CredentialStore, verifier Verifier, logger logging.Logger) *Authenticator {
	return &Authenticator{
		store:    store,
		verifier: verifier,
		logger:   logger.With("module", "authenticator"),
	}
}

// Authenticate returns the principal for identifier when password matches
// and the account is active. Any refusal yields common.ErrorUnauthorized;
// store failures yield common.ErrorInternal.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	user, err := a.store.FindByUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			a.verifier.VerifyDummy(ctx, password)
			a.refuse(ctx, identifier, ReasonUserNotFound)
			return nil, common.ErrorUnauthorized
		}
		a.logger.Error(ctx, "credential lookup failed", "username", identifier, "error", err)
		return nil, common.ErrorInternal
	}

	if !a.verifier.Verify(ctx, password, user.PasswordHash) {
		a.refuse(ctx, identifier, ReasonBadPassword)
		return nil, common.ErrorUnauthorized
	}

	if !user.IsActive {
		a.refuse(ctx, identifier, ReasonInactive)
		return nil, common.ErrorUnauthorized
	}

	a.logger.Info(ctx, "login succeeded", "username", user.Username, "user_id", user.ID)
	return user, nil
}

func (a *Authenticator) refuse(ctx context.Context, identifier, reason string) {
	a.logger.Warn(ctx, "login refused", "username", identifier, "reason", reason)
}
