package repository

import (
	"context"
	"errors"
	"time"

	"github.com/contactdesk/contacts-api/internal/model"
	ctxutil "github.com/contactdesk/contacts-api/pkg/context"
	"github.com/contactdesk/contacts-api/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail finds a user by exact email match. A missing row is an empty
// result, not an error.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "GetByEmail")

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.ErrorWithContext(ctx, "Failed to get user by email").
			String("email", email).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "User retrieved by email").
		String("email", email).
		Uint("user_id", user.ID).
		Duration(time.Since(start)).
		Log()

	return &user, nil
}

// Create persists a new user row. Password must already be hashed by the
// caller; avatar is whatever the caller derived (possibly nil).
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx = ctxutil.WithScope(ctx, "repository", "Create")

	start := time.Now()
	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", user.Email).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "User created").
		String("email", user.Email).
		Uint("user_id", user.ID).
		Duration(time.Since(start)).
		Log()

	return nil
}

// UpdatePassword overwrites the stored password hash in place and returns the
// updated row. Returns gorm.ErrRecordNotFound when no such user exists.
func (r *UserRepository) UpdatePassword(ctx context.Context, email, hashedPassword string) (*model.User, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "UpdatePassword")

	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		logger.WarnWithContext(ctx, "No user found to update password").
			String("email", email).
			Err(err).
			Log()
		return nil, err
	}

	user.Password = hashedPassword
	if err := r.db.WithContext(ctx).Save(&user).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to update password").
			String("email", email).
			Err(err).
			Log()
		return nil, err
	}

	logger.InfoWithContext(ctx, "Password updated").
		String("email", email).
		Uint("user_id", user.ID).
		Log()

	return &user, nil
}

// UpdateRefreshToken unconditionally overwrites the stored refresh token.
// An empty token revokes the session (stored as NULL).
func (r *UserRepository) UpdateRefreshToken(ctx context.Context, user *model.User, token string) error {
	ctx = ctxutil.WithScope(ctx, "repository", "UpdateRefreshToken")

	var value *string
	if token != "" {
		value = &token
	}

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("refresh_token", value)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update refresh token").
			Uint("user_id", user.ID).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	user.RefreshToken = value

	logger.DebugWithContext(ctx, "Refresh token updated").
		Uint("user_id", user.ID).
		Bool("revoked", value == nil).
		Log()

	return nil
}

// ConfirmEmail flips the confirmed flag to true. Returns
// gorm.ErrRecordNotFound when no such user exists.
func (r *UserRepository) ConfirmEmail(ctx context.Context, email string) error {
	ctx = ctxutil.WithScope(ctx, "repository", "ConfirmEmail")

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ?", email).
		Update("confirmed", true)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to confirm email").
			String("email", email).
			Err(result.Error).
			Log()
		return result.Error
	}
	if result.RowsAffected == 0 {
		logger.WarnWithContext(ctx, "No user found to confirm").
			String("email", email).
			Log()
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "Email confirmed").
		String("email", email).
		Log()

	return nil
}

// UpdateAvatar overwrites the avatar URL and returns the updated row.
func (r *UserRepository) UpdateAvatar(ctx context.Context, email, url string) (*model.User, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "UpdateAvatar")

	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		logger.WarnWithContext(ctx, "No user found to update avatar").
			String("email", email).
			Err(err).
			Log()
		return nil, err
	}

	user.Avatar = &url
	if err := r.db.WithContext(ctx).Save(&user).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to update avatar").
			String("email", email).
			Err(err).
			Log()
		return nil, err
	}

	logger.InfoWithContext(ctx, "Avatar updated").
		String("email", email).
		Uint("user_id", user.ID).
		Log()

	return &user, nil
}

// GetAll returns users with pagination and an optional search over username
// and email. Used by the admin listing only.
func (r *UserRepository) GetAll(ctx context.Context, limit, offset int, search string) ([]model.User, int64, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "GetAll")

	start := time.Now()
	var users []model.User
	var total int64

	query := r.db.WithContext(ctx).Model(&model.User{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("username LIKE ? OR email LIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to count users").
			Err(err).
			Log()
		return nil, 0, err
	}

	if err := query.Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch users").
			Int("limit", limit).
			Int("offset", offset).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, 0, err
	}

	logger.DebugWithContext(ctx, "Users retrieved").
		Int("limit", limit).
		Int("offset", offset).
		Int64("total", total).
		Int("returned_count", len(users)).
		Duration(time.Since(start)).
		Log()

	return users, total, nil
}
