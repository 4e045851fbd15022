package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/logging"
	"github.com/dmitrijs2005/qaapi/internal/server/models"
)

// Predicate is a role check applied to a resolved principal. Predicates
// compose: Authorize requires all of them.
type Predicate struct {
	name   string
	denial string
	allow  func(u *models.User) bool
}

func (p Predicate) Name() string { return p.name }

var (
	PredicateActive = Predicate{
		name:   "active",
		denial: "inactive user",
		allow:  func(u *models.User) bool { return u.IsActive },
	}
	PredicateSuperuser = Predicate{
		name:   "superuser",
		denial: "not enough permissions",
		allow:  func(u *models.User) bool { return u.IsSuperuser },
	}
)

// TokenDecoder is the part of TokenCodec the gate depends on.
type TokenDecoder interface {
	Decode(token string) (*Claims, error)
}

// Gate resolves bearer tokens into principals and applies predicates. It
// only reads from the store.
type Gate struct {
	tokens TokenDecoder
	store  CredentialStore
	logger logging.Logger
}

func NewGate(tokens TokenDecoder, store CredentialStore, logger logging.Logger) *Gate {
	return &Gate{
		tokens: tokens,
		store:  store,
		logger: logger.With("module", "authorization_gate"),
	}
}

// Authorize validates an access token, resolves its subject and checks the
// predicates in order.
//
// Token and principal problems yield common.ErrorUnauthorized; a resolved
// principal failing a predicate yields an error wrapping
// common.ErrorForbidden.
func (g *Gate) Authorize(ctx context.Context, token string, predicates ...Predicate) (*models.User, error) {
	user, err := g.resolve(ctx, token, models.TokenKindAccess)
	if err != nil {
		return nil, err
	}

	for _, p := range predicates {
		if !p.allow(user) {
			g.deny(ctx, "predicate_"+p.name, "username", user.Username)
			return nil, fmt.Errorf("%w: %s", common.ErrorForbidden, p.denial)
		}
	}
	return user, nil
}

// ResolveRefresh validates a refresh token and returns its principal,
// which must still exist and be active.
func (g *Gate) ResolveRefresh(ctx context.Context, token string) (*models.User, error) {
	user, err := g.resolve(ctx, token, models.TokenKindRefresh)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		g.deny(ctx, "refresh_inactive", "username", user.Username)
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

func (g *Gate) resolve(ctx context.Context, token string, kind models.TokenKind) (*models.User, error) {
	if token == "" {
		g.deny(ctx, "missing_token")
		return nil, common.ErrorUnauthorized
	}

	claims, err := g.tokens.Decode(token)
	if err != nil {
		g.deny(ctx, "invalid_token", "error", err)
		return nil, common.ErrorUnauthorized
	}
	if claims.Kind != kind {
		g.deny(ctx, "wrong_token_kind", "want", kind, "got", claims.Kind)
		return nil, common.ErrorUnauthorized
	}
	if claims.Subject == "" {
		g.deny(ctx, "missing_subject")
		return nil, common.ErrorUnauthorized
	}

	user, err := g.store.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			g.deny(ctx, "unknown_subject", "username", claims.Subject)
			return nil, common.ErrorUnauthorized
		}
		g.logger.Error(ctx, "principal lookup failed", "username", claims.Subject, "error", err)
		return nil, common.ErrorInternal
	}
	return user, nil
}

func (g *Gate) deny(ctx context.Context, reason string, args ...any) {
	g.logger.Warn(ctx, "authorization denied", append([]any{"reason", reason}, args...)...)
}
