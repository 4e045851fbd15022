package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/qaapi/internal/common"
	"github.com/dmitrijs2005/qaapi/internal/logging"
	"github.com/dmitrijs2005/qaapi/internal/server/models"
	"github.com/dmitrijs2005/qaapi/internal/server/repositories/repomanager"
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// UserService implements profile and administration use cases. Callers are
// expected to have authorized the actor already (active, and superuser for
// the administrative methods); the checks here are the ones that depend on
// the target.
type UserService struct {
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	logger      logging.Logger
}

func NewUserService(m repomanager.RepositoryManager, hasher PasswordHasher, logger logging.Logger) *UserService {
	return &UserService{
		repomanager: m,
		hasher:      hasher,
		logger:      logger.With("module", "user_service"),
	}
}

// List returns a page of users. Limit defaults to 100 and may not exceed
// 1000; Skip may not be negative.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	if filter.Limit == 0 {
		filter.Limit = DefaultPageLimit
	}
	if filter.Skip < 0 || filter.Limit < 1 || filter.Limit > MaxPageLimit {
		return nil, fmt.Errorf("%w: skip must be >= 0 and limit within [1, %d]", common.ErrorValidation, MaxPageLimit)
	}

	users, err := s.repomanager.Users().List(ctx, filter)
	if err != nil {
		return nil, s.internal(ctx, "list users", err)
	}
	return users, nil
}

// Get returns the user with id. Non-superusers may not view another user
// whose account is inactive.
func (s *UserService) Get(ctx context.Context, actor *models.User, id int64) (*models.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsSuperuser && user.ID != actor.ID && !user.IsActive {
		return nil, fmt.Errorf("%w: not enough permissions", common.ErrorForbidden)
	}
	return user, nil
}

func (s *UserService) Count(ctx context.Context, isActive *bool) (int, error) {
	n, err := s.repomanager.Users().Count(ctx, isActive)
	if err != nil {
		return 0, s.internal(ctx, "count users", err)
	}
	return n, nil
}

// Stats reports total, active and inactive user counts.
func (s *UserService) Stats(ctx context.Context) (models.UserStats, error) {
	total, err := s.Count(ctx, nil)
	if err != nil {
		return models.UserStats{}, err
	}
	active := true
	n, err := s.Count(ctx, &active)
	if err != nil {
		return models.UserStats{}, err
	}
	return models.UserStats{Total: total, Active: n, Inactive: total - n}, nil
}

// UpdateProfile applies the actor's own changes.
func (s *UserService) UpdateProfile(ctx context.Context, actor *models.User, req ProfileUpdate) (*models.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	upd, err := s.toUpdate(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, actor.ID, upd)
}

// UpdateUser applies a superuser's changes to any user.
func (s *UserService) UpdateUser(ctx context.Context, id int64, req AdminUpdate) (*models.User, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	upd, err := s.toUpdate(ctx, req.ProfileUpdate)
	if err != nil {
		return nil, err
	}
	upd.IsActive = req.IsActive
	return s.update(ctx, id, upd)
}

// Delete removes the user with id. Superusers cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor *models.User, id int64) error {
	if actor.ID == id {
		return fmt.Errorf("%w: cannot delete your own account", common.ErrorBadRequest)
	}
	deleted, err := s.repomanager.Users().Delete(ctx, id)
	if err != nil {
		return s.internal(ctx, "delete user", err)
	}
	if !deleted {
		return fmt.Errorf("user %w", common.ErrorNotFound)
	}
	s.logger.Info(ctx, "user deleted", "user_id", id, "by", actor.Username)
	return nil
}

// SetActive activates or deactivates the user with id. Superusers cannot
// deactivate themselves.
func (s *UserService) SetActive(ctx context.Context, actor *models.User, id int64, active bool) (*models.User, error) {
	if actor.ID == id && !active {
		return nil, fmt.Errorf("%w: cannot deactivate your own account", common.ErrorBadRequest)
	}
	user, err := s.update(ctx, id, models.UserUpdate{IsActive: &active})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user activation changed", "user_id", id, "active", active, "by", actor.Username)
	return user, nil
}

func (s *UserService) find(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repomanager.Users().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("user %w", common.ErrorNotFound)
		}
		return nil, s.internal(ctx, "find user", err)
	}
	return user, nil
}

func (s *UserService) update(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error) {
	user, err := s.repomanager.Users().Update(ctx, id, upd)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return nil, fmt.Errorf("user %w", common.ErrorNotFound)
		case errors.Is(err, common.ErrorConflict):
			return nil, err
		}
		return nil, s.internal(ctx, "update user", err)
	}
	return user, nil
}

func (s *UserService) toUpdate(ctx context.Context, req ProfileUpdate) (models.UserUpdate, error) {
	upd := models.UserUpdate{Email: req.Email, FullName: req.FullName}
	if req.Password != nil {
		digest, err := s.hasher.Hash(ctx, *req.Password)
		if err != nil {
			if errors.Is(err, common.ErrorValidation) {
				return upd, err
			}
			return upd, s.internal(ctx, "hash password", err)
		}
		upd.PasswordHash = &digest
	}
	return upd, nil
}

func (s *UserService) internal(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}
