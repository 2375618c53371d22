package service

import (
	"context"
	"math"

	"github.com/contactdesk/contacts-api/internal/constants"
	"github.com/contactdesk/contacts-api/internal/dto"
	apperrors "github.com/contactdesk/contacts-api/internal/errors"
	"github.com/contactdesk/contacts-api/internal/repository"
	ctxutil "github.com/contactdesk/contacts-api/pkg/context"
	"github.com/contactdesk/contacts-api/pkg/logger"
	"github.com/contactdesk/contacts-api/pkg/redis"
)

// UserService covers the account operations outside the auth lifecycle:
// avatar updates and the admin-only listing.
type UserService struct {
	repoUser *repository.UserRepository
	cache    *redis.Client
}

func NewUserService(repo *repository.UserRepository, cache *redis.Client) *UserService {
	return &UserService{repoUser: repo, cache: cache}
}

// UpdateAvatar overwrites the avatar URL for the given account
func (s *UserService) UpdateAvatar(ctx context.Context, email, url string) (*dto.UserResponse, error) {
	ctx = ctxutil.WithScope(ctx, "service", "UpdateAvatar")

	user, err := s.repoUser.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}

	updated, err := s.repoUser.UpdateAvatar(ctx, email, url)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	// Drop the cached row so the auth middleware picks up the new avatar
	// immediately rather than after the cache TTL.
	if err := s.cache.Delete(ctx, constants.CacheKeyUser+email); err != nil {
		logger.WarnWithContext(ctx, "User cache invalidation failed").
			String("email", email).
			Err(err).
			Log()
	}

	logger.InfoWithContext(ctx, "Avatar updated").
		String("email", email).
		Uint("user_id", updated.ID).
		Log()

	return dto.NewUserResponse(updated), nil
}

// GetAll lists accounts with pagination and optional search. Reachable only
// through the admin/moderator route guard.
func (s *UserService) GetAll(ctx context.Context, limit, offset int, search string) ([]dto.UserResponse, int64, int, error) {
	ctx = ctxutil.WithScope(ctx, "service", "GetAll")

	users, total, err := s.repoUser.GetAll(ctx, limit, offset, search)
	if err != nil {
		return nil, 0, 0, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	pageTotal := int(math.Ceil(float64(total) / float64(limit)))
	res := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		res = append(res, *dto.NewUserResponse(&users[i]))
	}

	return res, total, pageTotal, nil
}
