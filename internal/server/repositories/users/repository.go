// Package users is the credential store: principals with their password
// hashes and role flags. Username and email uniqueness is enforced here, by
// the store itself, so concurrent registrations cannot both succeed.
package users

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/server/models"
)

// Repository is implemented by the Postgres and in-memory stores.
//
// Lookups return common.ErrorNotFound when nothing matches. Create and
// Update return an error wrapping common.ErrorConflict when a username or
// email is already taken.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, error)
	Count(ctx context.Context, isActive *bool) (int, error)
}

const (
	FieldUsername = "username"
	FieldEmail    = "email"
)

// ConflictError builds the error returned for a duplicate field.
func ConflictError(field string) error {
	return fmt.Errorf("%w: %s already registered", common.ErrorConflict, field)
}
