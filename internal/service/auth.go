package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/contactdesk/contacts-api/internal/constants"
	"github.com/contactdesk/contacts-api/internal/dto"
	apperrors "github.com/contactdesk/contacts-api/internal/errors"
	"github.com/contactdesk/contacts-api/internal/model"
	"github.com/contactdesk/contacts-api/internal/repository"
	ctxutil "github.com/contactdesk/contacts-api/pkg/context"
	"github.com/contactdesk/contacts-api/pkg/logger"
	"github.com/contactdesk/contacts-api/pkg/redis"
	"golang.org/x/crypto/bcrypt"
)

const generatedPasswordLength = 12

// normalizeEmail canonicalizes an address so storage and every lookup
// agree on the same lowercase form.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AuthService drives the account lifecycle: signup, email confirmation,
// login, token refresh and password rotation. Avatar lookup and mail
// delivery are injected capabilities and both fail soft.
type AuthService struct {
	repoUser *repository.UserRepository
	jwt      *JWTService
	avatars  AvatarLookup
	notifier Notifier
	cache    *redis.Client
}

func NewAuthService(repoUser *repository.UserRepository, jwt *JWTService, avatars AvatarLookup, notifier Notifier, cache *redis.Client) *AuthService {
	return &AuthService{
		repoUser: repoUser,
		jwt:      jwt,
		avatars:  avatars,
		notifier: notifier,
		cache:    cache,
	}
}

// invalidateUserCache drops the cached user row after a mutation so the
// auth middleware re-reads the database instead of serving stale data
// until the TTL runs out.
func (s *AuthService) invalidateUserCache(ctx context.Context, email string) {
	if err := s.cache.Delete(ctx, constants.CacheKeyUser+email); err != nil {
		logger.WarnWithContext(ctx, "User cache invalidation failed").
			String("email", email).
			Err(err).
			Log()
	}
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *AuthService) checkPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// Signup registers a new account in the Registered-Unconfirmed state and
// schedules the confirmation email.
func (s *AuthService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.WithScope(ctx, "service", "Signup")

	email := normalizeEmail(req.Email)

	existing, err := s.repoUser.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if existing != nil {
		logger.WarnWithContext(ctx, "Signup rejected, email taken").
			String("email", email).
			Log()
		return nil, apperrors.ErrEmailExists
	}

	hashedPassword, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		Username: strings.TrimSpace(req.Username),
		Email:    email,
		Password: hashedPassword,
		Role:     model.RoleUser,
	}

	// External lookup failure is non-fatal: the account is created with
	// avatar unset.
	if url, err := s.avatars.URL(ctx, email); err != nil {
		logger.WarnWithContext(ctx, "Avatar lookup failed, proceeding without avatar").
			String("email", email).
			Err(err).
			Log()
	} else {
		user.Avatar = &url
	}

	if err := s.repoUser.Create(ctx, user); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.scheduleConfirmationEmail(ctx, user)

	logger.InfoWithContext(ctx, "User signed up").
		String("email", email).
		Uint("user_id", user.ID).
		Log()

	return dto.NewUserResponse(user), nil
}

// Login authenticates the user and issues an access+refresh token pair.
// Unconfirmed accounts are rejected.
func (s *AuthService) Login(ctx context.Context, email, password string) (*dto.TokenResponse, error) {
	ctx = ctxutil.WithScope(ctx, "service", "Login")

	email = normalizeEmail(email)

	user, err := s.repoUser.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user == nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.Confirmed {
		logger.WarnWithContext(ctx, "Login rejected, email not confirmed").
			String("email", email).
			Log()
		return nil, apperrors.ErrEmailNotConfirmed
	}
	if !s.checkPassword(user.Password, password) {
		logger.WarnWithContext(ctx, "Login rejected, bad password").
			String("email", email).
			Log()
		return nil, apperrors.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "User logged in").
		String("email", email).
		Uint("user_id", user.ID).
		Log()

	return tokens, nil
}

// RefreshTokens rotates the token pair. The presented refresh token must
// equal the stored one exactly; on mismatch the stored token is revoked
// before the request is rejected, so a replayed stolen token burns the
// session it stole.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	ctx = ctxutil.WithScope(ctx, "service", "RefreshTokens")

	email, err := s.jwt.DecodeRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repoUser.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user == nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		logger.WarnWithContext(ctx, "Refresh token mismatch, revoking session").
			String("email", email).
			Uint("user_id", user.ID).
			Log()
		if err := s.repoUser.UpdateRefreshToken(ctx, user, ""); err != nil {
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
		return nil, apperrors.ErrInvalidRefreshToken
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.InfoWithContext(ctx, "Tokens refreshed").
		String("email", email).
		Uint("user_id", user.ID).
		Log()

	return tokens, nil
}

// ConfirmEmail flips the confirmed flag for the token's subject. Confirming
// twice is a no-op signalled by alreadyConfirmed, never an error.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (alreadyConfirmed bool, err error) {
	ctx = ctxutil.WithScope(ctx, "service", "ConfirmEmail")

	email, err := s.jwt.DecodeEmailToken(token)
	if err != nil {
		return false, err
	}

	user, err := s.repoUser.GetByEmail(ctx, email)
	if err != nil {
		return false, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user == nil {
		return false, apperrors.ErrInvalidEmailToken
	}
	if user.Confirmed {
		return true, nil
	}

	if err := s.repoUser.ConfirmEmail(ctx, email); err != nil {
		return false, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.invalidateUserCache(ctx, email)

	logger.InfoWithContext(ctx, "Email confirmed").
		String("email", email).
		Uint("user_id", user.ID).
		Log()

	return false, nil
}

// ChangePassword rotates the password after verifying the current
// credentials. Requires a confirmed account.
func (s *AuthService) ChangePassword(ctx context.Context, req *dto.ChangePasswordRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.WithScope(ctx, "service", "ChangePassword")

	email := normalizeEmail(req.Email)

	user, err := s.repoUser.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user == nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.Confirmed {
		return nil, apperrors.ErrEmailNotConfirmed
	}
	if !s.checkPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	hashed, err := s.hashPassword(req.NewPassword)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	updated, err := s.repoUser.UpdatePassword(ctx, email, hashed)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.invalidateUserCache(ctx, email)

	logger.InfoWithContext(ctx, "Password changed").
		String("email", email).
		Uint("user_id", updated.ID).
		Log()

	return dto.NewUserResponse(updated), nil
}

// ResetPassword replaces the password with a server-generated one and emails
// it to the account's confirmed address.
func (s *AuthService) ResetPassword(ctx context.Context, email string) (*dto.UserResponse, error) {
	ctx = ctxutil.WithScope(ctx, "service", "ResetPassword")

	email = normalizeEmail(email)

	user, err := s.repoUser.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	if !user.Confirmed {
		return nil, apperrors.ErrEmailNotConfirmed
	}

	newPassword, err := generatePassword(generatedPasswordLength)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	hashed, err := s.hashPassword(newPassword)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	updated, err := s.repoUser.UpdatePassword(ctx, email, hashed)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.invalidateUserCache(ctx, email)
	s.schedulePasswordResetEmail(ctx, updated, newPassword)

	logger.InfoWithContext(ctx, "Password reset").
		String("email", email).
		Uint("user_id", updated.ID).
		Log()

	return dto.NewUserResponse(updated), nil
}

// RequestEmail re-sends the confirmation email unless the account is already
// confirmed.
func (s *AuthService) RequestEmail(ctx context.Context, email string) (alreadyConfirmed bool, err error) {
	ctx = ctxutil.WithScope(ctx, "service", "RequestEmail")

	email = normalizeEmail(email)

	user, err := s.repoUser.GetByEmail(ctx, email)
	if err != nil {
		return false, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if user == nil {
		return false, apperrors.ErrUserNotFound
	}
	if user.Confirmed {
		return true, nil
	}

	s.scheduleConfirmationEmail(ctx, user)
	return false, nil
}

// issueTokens mints a fresh access+refresh pair and stores the refresh token
// verbatim on the user row.
func (s *AuthService) issueTokens(ctx context.Context, user *model.User) (*dto.TokenResponse, error) {
	accessToken, err := s.jwt.CreateAccessToken(user.Email)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	refreshToken, err := s.jwt.CreateRefreshToken(user.Email)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.repoUser.UpdateRefreshToken(ctx, user, refreshToken); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(s.jwt.AccessTTL().Seconds()),
	}, nil
}

// scheduleConfirmationEmail fires the delivery off the request path. Failure
// is logged and swallowed, never surfaced to the caller.
func (s *AuthService) scheduleConfirmationEmail(ctx context.Context, user *model.User) {
	token, err := s.jwt.CreateEmailToken(user.Email)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to create email token").
			String("email", user.Email).
			Err(err).
			Log()
		return
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		if err := s.notifier.SendConfirmation(bg, user.Email, user.Username, token); err != nil {
			logger.WarnWithContext(bg, "Confirmation email delivery failed").
				String("email", user.Email).
				Err(err).
				Log()
		}
	}()
}

func (s *AuthService) schedulePasswordResetEmail(ctx context.Context, user *model.User, newPassword string) {
	token, err := s.jwt.CreateEmailToken(user.Email)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to create email token").
			String("email", user.Email).
			Err(err).
			Log()
		return
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		if err := s.notifier.SendPasswordReset(bg, user.Email, user.Username, newPassword, token); err != nil {
			logger.WarnWithContext(bg, "Password reset email delivery failed").
				String("email", user.Email).
				Err(err).
				Log()
		}
	}()
}

// generatePassword returns a URL-safe random password
func generatePassword(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:length], nil
}
