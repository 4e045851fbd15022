package client

import (
	"context"

	"github.com/dmitrijs2005/qaapi/internal/client/models"
)

// Client is the REST API contract used by the CLI.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.TokenPair, error)
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	VerifyToken(ctx context.Context) (*models.TokenCheck, error)

	Me(ctx context.Context) (*models.User, error)
	UpdateMe(ctx context.Context, upd models.UserUpdate) (*models.User, error)
	ListUsers(ctx context.Context, q models.UserQuery) ([]models.User, error)
	CountUsers(ctx context.Context, isActive *bool) (int, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	SetUserActive(ctx context.Context, id int64, active bool) (*models.User, error)

	Tokens() models.TokenPair
	SetTokens(p models.TokenPair)
}
