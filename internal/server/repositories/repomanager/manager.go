// Package repomanager wires repository implementations to a backing store
// and owns schema migrations for it.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/qaapi/internal/server/repositories/users"
)

// RepositoryManager vends repositories for one backing store.
type RepositoryManager interface {
	// RunMigrations brings the schema up to date. No-op for stores
	// without a schema.
	RunMigrations(ctx context.Context) error

	// Users returns the credential store bound to the shared handle.
	Users() users.Repository

	// WithinTx runs fn with a credential store bound to a single
	// transaction where the backend supports one.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error

	// Name identifies the backend in logs and status responses.
	Name() string

	Close() error
}
