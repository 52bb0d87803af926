package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"digithesis/internal/access"
	"digithesis/internal/auth"
	"digithesis/internal/cache"
	apperrors "digithesis/internal/errors"
	"digithesis/internal/model"
	"digithesis/internal/pagination"
	"digithesis/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserService exposes user lookups and administration.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context, requester *access.Requester, page pagination.Params) ([]model.User, int64, error)
	ChangeRole(ctx context.Context, requester *access.Requester, targetID uuid.UUID, role model.Role) (*model.User, error)
}

type userService struct {
	repo      repository.UserRepository
	cache     *cache.Client
	tokens    auth.TokenStoreInterface
	accessTTL time.Duration
}

// NewUserService builds a UserService. Role changes invalidate the target's
// access tokens for accessTTL through tokens.
func NewUserService(repo repository.UserRepository, cache *cache.Client, tokens auth.TokenStoreInterface, accessTTL time.Duration) UserService {
	return &userService{repo: repo, cache: cache, tokens: tokens, accessTTL: accessTTL}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

// GetUser returns a user, served from cache when possible.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	_ = s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	return user, nil
}

// ListUsers returns one page of all users. Privileged requesters only.
func (s *userService) ListUsers(ctx context.Context, requester *access.Requester, page pagination.Params) ([]model.User, int64, error) {
	if err := authorize(requester, access.ActionListAll, access.Target{}); err != nil {
		return nil, 0, err
	}
	users, total, err := s.repo.List(ctx, page.Offset, page.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// ChangeRole sets the role of another user. Access tokens the target holds
// stop working, so the new role applies from their next refresh.
func (s *userService) ChangeRole(ctx context.Context, requester *access.Requester, targetID uuid.UUID, role model.Role) (*model.User, error) {
	if err := precheck(requester, access.ActionChangeRole); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}

	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := authorize(requester, access.ActionChangeRole, access.UserTarget(target)); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRole(ctx, target.ID, role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(target.ID))
	if err := s.tokens.MarkRoleChanged(ctx, target.ID, s.accessTTL); err != nil {
		return nil, fmt.Errorf("invalidate access tokens: %w", err)
	}

	target.Role = role
	return target, nil
}
