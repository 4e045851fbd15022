package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/server/models"
)

const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// DefaultScopes are granted to access tokens issued on login.
var DefaultScopes = []string{"user"}

// Claims is the signed payload of both token kinds. The subject is the
// principal's username.
type Claims struct {
	jwt.RegisteredClaims
	Kind   models.TokenKind `json:"type"`
	Scopes []string         `json:"scopes,omitempty"`
}

// minTokenTTL keeps exp strictly after iat once both are truncated to
// whole seconds.
const minTokenTTL = time.Second

// TokenCodecConfig is loaded once at startup and handed to NewTokenCodec.
type TokenCodecConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
}

// TokenCodec signs and verifies HS256 JWTs with a single shared secret.
// It is stateless and safe for concurrent use.
type TokenCodec struct {
	cfg    TokenCodecConfig
	now    func() time.Time
	parser *jwt.Parser
}

func NewTokenCodec(cfg TokenCodecConfig) (*TokenCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTokenTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTokenTTL
	}
	if cfg.AccessTTL < minTokenTTL || cfg.RefreshTTL < minTokenTTL {
		return nil, fmt.Errorf("token ttl must be at least %s", minTokenTTL)
	}

	c := &TokenCodec{cfg: cfg, now: time.Now}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	c.parser = jwt.NewParser(opts...)

	return c, nil
}

func (c *TokenCodec) AccessTTL() time.Duration  { return c.cfg.AccessTTL }
func (c *TokenCodec) RefreshTTL() time.Duration { return c.cfg.RefreshTTL }

// Issue signs claims valid for ttl from now. Subject, Kind and Scopes are
// taken from claims; IssuedAt, ExpiresAt and ID are set here.
func (c *TokenCodec) Issue(claims Claims, ttl time.Duration) (string, error) {
	if ttl < minTokenTTL {
		return "", fmt.Errorf("token ttl must be at least %s", minTokenTTL)
	}
	if claims.Kind != models.TokenKindAccess && claims.Kind != models.TokenKindRefresh {
		return "", fmt.Errorf("unknown token kind %q", claims.Kind)
	}

	now := c.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.ID = uuid.NewString()
	if c.cfg.Issuer != "" {
		claims.Issuer = c.cfg.Issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// IssueAccess issues an access token for subject with the configured TTL.
func (c *TokenCodec) IssueAccess(subject string, scopes []string) (string, error) {
	return c.Issue(Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Kind:             models.TokenKindAccess,
		Scopes:           scopes,
	}, c.cfg.AccessTTL)
}

// IssueRefresh issues a refresh token for subject with the configured TTL.
func (c *TokenCodec) IssueRefresh(subject string) (string, error) {
	return c.Issue(Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Kind:             models.TokenKindRefresh,
	}, c.cfg.RefreshTTL)
}

// Decode verifies the signature and expiry of token and returns its claims.
// Errors are common.ErrTokenInvalidSignature, common.ErrTokenExpired or
// common.ErrTokenMalformed. The token kind is returned as-is; callers
// decide which kinds they accept.
func (c *TokenCodec) Decode(token string) (*Claims, error) {
	claims := &Claims{}

	_, err := c.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.cfg.Secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, common.ErrTokenInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, common.ErrTokenExpired
		default:
			return nil, fmt.Errorf("%w: %v", common.ErrTokenMalformed, err)
		}
	}

	if claims.Kind != models.TokenKindAccess && claims.Kind != models.TokenKindRefresh {
		return nil, fmt.Errorf("%w: unknown token kind %q", common.ErrTokenMalformed, claims.Kind)
	}

	return claims, nil
}
