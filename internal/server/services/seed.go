package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/server/models"
	"github.com/dmitrijs2005/qaapi/internal/server/repositories/users"
)

// SeedUser describes an account created at startup when seeding is on.
type SeedUser struct {
	Username    string
	Email       string
	FullName    string
	Password    string
	IsSuperuser bool
}

// DefaultSeedUsers are the demo accounts the test client expects.
var DefaultSeedUsers = []SeedUser{
	{Username: "admin", Email: "admin@example.com", FullName: "Administrator", Password: "Admin123!", IsSuperuser: true},
	{Username: "testuser", Email: "test@example.com", FullName: "Test User", Password: "Test123!"},
	{Username: "john_doe", Email: "john@example.com", FullName: "John Doe", Password: "John123!"},
}

// Seed creates every seed account that does not exist yet, in a single
// transaction where the store supports it. It returns how many were added.
func (s *AuthService) Seed(ctx context.Context, seeds []SeedUser) (int, error) {
	created := 0

	err := s.repomanager.WithinTx(ctx, func(ctx context.Context, repo users.Repository) error {
		for _, seed := range seeds {
			_, err := repo.FindByUsername(ctx, seed.Username)
			if err == nil {
				continue
			}
			if !errors.Is(err, common.ErrorNotFound) {
				return err
			}

			digest, err := s.hasher.Hash(ctx, seed.Password)
			if err != nil {
				return fmt.Errorf("hash seed password for %s: %w", seed.Username, err)
			}
			fullName := seed.FullName
			if _, err := repo.Create(ctx, &models.User{
				Username:     seed.Username,
				Email:        seed.Email,
				FullName:     &fullName,
				PasswordHash: digest,
				IsActive:     true,
				IsSuperuser:  seed.IsSuperuser,
			}); err != nil {
				return fmt.Errorf("create seed user %s: %w", seed.Username, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created > 0 {
		s.logger.Info(ctx, "seed users created", "count", created)
	}
	return created, nil
}
