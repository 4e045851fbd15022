package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/server/models"
)

func newGateFixture(t *testing.T) (*Gate, *TokenCodec, *fakeStore, func() string) {
	t.Helper()
	codec := newTestCodec(t)
	store := storeWith(
		&models.User{ID: 1, Username: "alice", IsActive: true},
		&models.User{ID: 2, Username: "root", IsActive: true, IsSuperuser: true},
		&models.User{ID: 3, Username: "sleepy", IsActive: false},
		&models.User{ID: 4, Username: "fallen", IsActive: false, IsSuperuser: true},
	)
	log, buf := bufferLogger()
	return NewGate(codec, store, log), codec, store, buf.String
}

func access(t *testing.T, c *TokenCodec, subject string) string {
	t.Helper()
	tok, err := c.IssueAccess(subject, DefaultScopes)
	require.NoError(t, err)
	return tok
}

func TestGate_Authorize(t *testing.T) {
	g, codec, _, _ := newGateFixture(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		subject    string
		predicates []Predicate
		wantErr    error
	}{
		{name: "no predicates", subject: "sleepy"},
		{name: "active ok", subject: "alice", predicates: []Predicate{PredicateActive}},
		{name: "active denied", subject: "sleepy", predicates: []Predicate{PredicateActive}, wantErr: common.ErrorForbidden},
		{name: "superuser denied", subject: "alice", predicates: []Predicate{PredicateActive, PredicateSuperuser}, wantErr: common.ErrorForbidden},
		{name: "superuser ok", subject: "root", predicates: []Predicate{PredicateActive, PredicateSuperuser}},
		{name: "inactive superuser", subject: "fallen", predicates: []Predicate{PredicateActive, PredicateSuperuser}, wantErr: common.ErrorForbidden},
		{name: "unknown subject", subject: "ghost", predicates: []Predicate{PredicateActive}, wantErr: common.ErrorUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := g.Authorize(ctx, access(t, codec, tt.subject), tt.predicates...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, u)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.subject, u.Username)
		})
	}
}

func TestGate_ForbiddenNeverUnauthorized(t *testing.T) {
	g, codec, _, logs := newGateFixture(t)

	_, err := g.Authorize(context.Background(), access(t, codec, "alice"), PredicateSuperuser)
	require.ErrorIs(t, err, common.ErrorForbidden)
	assert.False(t, errors.Is(err, common.ErrorUnauthorized))
	assert.Contains(t, err.Error(), "not enough permissions")
	assert.Contains(t, logs(), "reason=predicate_superuser")
}

func TestGate_TokenProblemsAreUnauthorized(t *testing.T) {
	g, codec, _, logs := newGateFixture(t)
	ctx := context.Background()

	refresh, err := codec.IssueRefresh("alice")
	require.NoError(t, err)

	expiredCodec := newTestCodec(t)
	expiredCodec.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredCodec.IssueAccess("alice", nil)
	require.NoError(t, err)

	other, err := NewTokenCodec(TokenCodecConfig{Secret: []byte("nope")})
	require.NoError(t, err)
	forged, err := other.IssueAccess("root", nil)
	require.NoError(t, err)

	noSubject, err := codec.IssueAccess("", nil)
	require.NoError(t, err)

	tokens := map[string]string{
		"missing":       "",
		"garbage":       "not-a-token",
		"refresh kind":  refresh,
		"expired":       expired,
		"forged":        forged,
		"empty subject": noSubject,
	}
	for name, tok := range tokens {
		t.Run(name, func(t *testing.T) {
			_, err := g.Authorize(ctx, tok, PredicateActive)
			require.ErrorIs(t, err, common.ErrorUnauthorized)
		})
	}
	assert.Contains(t, logs(), "reason=wrong_token_kind")
}

func TestGate_StoreFailure(t *testing.T) {
	g, codec, store, _ := newGateFixture(t)
	tok := access(t, codec, "alice")
	store.err = errors.New("db down")

	_, err := g.Authorize(context.Background(), tok)
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestGate_ResolveRefresh(t *testing.T) {
	g, codec, _, _ := newGateFixture(t)
	ctx := context.Background()

	good, err := codec.IssueRefresh("alice")
	require.NoError(t, err)
	u, err := g.ResolveRefresh(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = g.ResolveRefresh(ctx, access(t, codec, "alice"))
	require.ErrorIs(t, err, common.ErrorUnauthorized, "access token is not a refresh token")

	inactive, err := codec.IssueRefresh("sleepy")
	require.NoError(t, err)
	_, err = g.ResolveRefresh(ctx, inactive)
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	gone, err := codec.IssueRefresh("ghost")
	require.NoError(t, err)
	_, err = g.ResolveRefresh(ctx, gone)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestGate_DoesNotWrite(t *testing.T) {
	g, codec, store, _ := newGateFixture(t)
	before := *store.users["alice"]

	_, _ = g.Authorize(context.Background(), access(t, codec, "alice"), PredicateSuperuser)

	assert.Equal(t, before, *store.users["alice"])
	assert.Equal(t, "superuser", PredicateSuperuser.Name())
}
