package repomanager

import (
	"context"

	"github.com/dmitrijs2005/qaapi/internal/server/repositories/users"
)

// MemoryRepositoryManager serves a single in-process credential store. It
// is used when no database DSN is configured and throughout the tests.
type MemoryRepositoryManager struct {
	users *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users() users.Repository { return m.users }

// WithinTx runs fn directly: the memory store has no rollback, each
// repository call is atomic on its own.
func (m *MemoryRepositoryManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error {
	return fn(ctx, m.users)
}

func (m *MemoryRepositoryManager) Name() string { return "memory" }

func (m *MemoryRepositoryManager) Close() error { return nil }
