package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/contactdesk/contacts-api/internal/dto"
	apperrors "github.com/contactdesk/contacts-api/internal/errors"
	"github.com/contactdesk/contacts-api/internal/model"
	"github.com/contactdesk/contacts-api/internal/repository"
	"github.com/contactdesk/contacts-api/pkg/redis"
)

type fakeAvatars struct {
	url string
	err error
}

func (f *fakeAvatars) URL(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// fakeNotifier records deliveries; the service sends off the request
// path, so access is guarded for the delivery goroutines.
type fakeNotifier struct {
	mu            sync.Mutex
	confirmations []string
	resets        []string
	lastToken     string
	lastPassword  string
}

func (f *fakeNotifier) SendConfirmation(_ context.Context, email, _ string, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmations = append(f.confirmations, email)
	f.lastToken = token
	return nil
}

func (f *fakeNotifier) SendPasswordReset(_ context.Context, email, _, newPassword, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, email)
	f.lastPassword = newPassword
	f.lastToken = token
	return nil
}

func (f *fakeNotifier) confirmationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.confirmations)
}

func (f *fakeNotifier) resetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.resets)
}

func (f *fakeNotifier) token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastToken
}

func (f *fakeNotifier) password() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPassword
}

type authFixture struct {
	db       *gorm.DB
	service  *AuthService
	notifier *fakeNotifier
	avatars  *fakeAvatars
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Contact{}))

	notifier := &fakeNotifier{}
	avatars := &fakeAvatars{err: errors.New("no gravatar")}

	cache := redis.NewClient(redis.Config{Enabled: false}, zap.NewNop())
	svc := NewAuthService(repository.NewUserRepository(db), newTestJWTService(), avatars, notifier, cache)

	return &authFixture{db: db, service: svc, notifier: notifier, avatars: avatars}
}

func (f *authFixture) signup(t *testing.T, email, password string) *dto.UserResponse {
	t.Helper()

	user, err := f.service.Signup(context.Background(), &dto.SignupRequest{
		Username: "tester",
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

func (f *authFixture) confirm(t *testing.T, email string) {
	t.Helper()
	require.NoError(t, f.db.Model(&model.User{}).Where("email = ?", email).Update("confirmed", true).Error)
}

func TestSignupCreatesUnconfirmedUser(t *testing.T) {
	f := newAuthFixture(t)

	user := f.signup(t, "new@example.com", "secret123")
	assert.Equal(t, "new@example.com", user.Email)
	assert.False(t, user.Confirmed)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Nil(t, user.Avatar)

	var stored model.User
	require.NoError(t, f.db.Where("email = ?", "new@example.com").First(&stored).Error)
	assert.False(t, stored.Confirmed)
	// Password is stored hashed, never verbatim.
	assert.NotEqual(t, "secret123", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret123")))

	assert.Eventually(t, func() bool {
		return f.notifier.confirmationCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSignupNormalizesEmailAndRejectsDuplicates(t *testing.T) {
	f := newAuthFixture(t)

	user := f.signup(t, "  Mixed@Example.COM ", "secret123")
	assert.Equal(t, "mixed@example.com", user.Email)

	_, err := f.service.Signup(context.Background(), &dto.SignupRequest{
		Username: "other",
		Email:    "mixed@example.com",
		Password: "different",
	})
	assert.ErrorIs(t, err, apperrors.ErrEmailExists)
}

func TestSignupAvatarLookupFailsSoft(t *testing.T) {
	f := newAuthFixture(t)
	f.avatars.err = nil
	f.avatars.url = "https://www.gravatar.com/avatar/abc"

	user := f.signup(t, "pictured@example.com", "secret123")
	require.NotNil(t, user.Avatar)
	assert.Equal(t, "https://www.gravatar.com/avatar/abc", *user.Avatar)
}

func TestLoginRequiresConfirmedEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.signup(t, "user@example.com", "secret123")

	_, err := f.service.Login(ctx, "user@example.com", "secret123")
	assert.ErrorIs(t, err, apperrors.ErrEmailNotConfirmed)

	f.confirm(t, "user@example.com")

	tokens, err := f.service.Login(ctx, "user@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "bearer", tokens.TokenType)
	assert.Equal(t, int((15 * time.Minute).Seconds()), tokens.ExpiresIn)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.signup(t, "user@example.com", "secret123")
	f.confirm(t, "user@example.com")

	// Unknown account and wrong password yield the same error.
	_, err := f.service.Login(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.service.Login(ctx, "user@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginAcceptsAnyEmailCase(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.signup(t, "Mixed@Example.com", "secret123")
	f.confirm(t, "mixed@example.com")

	// The caller may type the address with any casing; lookups use the
	// same canonical form signup stored.
	tokens, err := f.service.Login(ctx, "Mixed@Example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)

	_, err = f.service.Login(ctx, "  MIXED@EXAMPLE.COM ", "secret123")
	assert.NoError(t, err)
}

func TestLoginStoresRefreshTokenVerbatim(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.signup(t, "user@example.com", "secret123")
	f.confirm(t, "user@example.com")

	tokens, err := f.service.Login(ctx, "user@example.com", "secret123")
	require.NoError(t, err)

	var stored model.User
	require.NoError(t, f.db.Where("email = ?", "user@example.com").First(&stored).Error)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, tokens.RefreshToken, *stored.RefreshToken)
}

func TestRefreshRotatesTokenPair(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.signup(t, "user@example.com", "secret123")
	f.confirm(t, "user@example.com")

	tokens, err := f.service.Login(ctx, "user@example.com", "secret123")
	require.NoError(t, err)

	// Signing twice in the same second yields identical claims, so the
	// rotated token would equal the old one. Step past the boundary.
	time.Sleep(1100 * time.Millisecond)

	rotated, err := f.service.RefreshTokens(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	var stored model.User
	require.NoError(t, f.db.Where("email = ?", "user@example.com").First(&stored).Error)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, rotated.RefreshToken, *stored.RefreshToken)
}

func TestRefreshMismatchRevokesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.signup(t, "user@example.com", "secret123")
	f.confirm(t, "user@example.com")

	first, err := f.service.Login(ctx, "user@example.com", "secret123")
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)

	// A second login replaces the stored token; the first one is now stale.
	_, err = f.service.Login(ctx, "user@example.com", "secret123")
	require.NoError(t, err)

	_, err = f.service.RefreshTokens(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

	// The mismatch burned the whole session: nothing is stored anymore, so
	// even the freshest token is rejected now.
	var stored model.User
	require.NoError(t, f.db.Where("email = ?", "user@example.com").First(&stored).Error)
	assert.Nil(t, stored.RefreshToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.signup(t, "user@example.com", "secret123")
	f.confirm(t, "user@example.com")

	tokens, err := f.service.Login(ctx, "user@example.com", "secret123")
	require.NoError(t, err)

	_, err = f.service.RefreshTokens(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTokenScope)
}

func TestConfirmEmailIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.signup(t, "user@example.com", "secret123")

	assert.Eventually(t, func() bool {
		return f.notifier.token() != ""
	}, time.Second, 10*time.Millisecond)
	token := f.notifier.token()

	already, err := f.service.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.False(t, already)

	var stored model.User
	require.NoError(t, f.db.Where("email = ?", "user@example.com").First(&stored).Error)
	assert.True(t, stored.Confirmed)

	// Confirming again is not an error.
	already, err = f.service.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.True(t, already)
}

func TestConfirmEmailRejectsBadToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.ConfirmEmail(ctx, "garbage")
	assert.ErrorIs(t, err, apperrors.ErrInvalidEmailToken)

	// A structurally valid token whose subject has no account.
	orphan, err := newTestJWTService().CreateEmailToken("ghost@example.com")
	require.NoError(t, err)

	_, err = f.service.ConfirmEmail(ctx, orphan)
	assert.ErrorIs(t, err, apperrors.ErrInvalidEmailToken)
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.signup(t, "user@example.com", "secret123")
	f.confirm(t, "user@example.com")

	_, err := f.service.ChangePassword(ctx, &dto.ChangePasswordRequest{
		Email:       "user@example.com",
		Password:    "wrong",
		NewPassword: "rotated456",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.service.ChangePassword(ctx, &dto.ChangePasswordRequest{
		Email:       "user@example.com",
		Password:    "secret123",
		NewPassword: "rotated456",
	})
	require.NoError(t, err)

	_, err = f.service.Login(ctx, "user@example.com", "secret123")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.service.Login(ctx, "user@example.com", "rotated456")
	assert.NoError(t, err)
}

func TestResetPasswordGeneratesAndMailsNewPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.signup(t, "user@example.com", "secret123")
	f.confirm(t, "user@example.com")

	_, err := f.service.ResetPassword(ctx, "user@example.com")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return f.notifier.resetCount() == 1
	}, time.Second, 10*time.Millisecond)

	newPassword := f.notifier.password()
	require.Len(t, newPassword, generatedPasswordLength)

	_, err = f.service.Login(ctx, "user@example.com", "secret123")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.service.Login(ctx, "user@example.com", newPassword)
	assert.NoError(t, err)
}

func TestResetPasswordEdgeCases(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.ResetPassword(ctx, "missing@example.com")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	f.signup(t, "pending@example.com", "secret123")
	_, err = f.service.ResetPassword(ctx, "pending@example.com")
	assert.ErrorIs(t, err, apperrors.ErrEmailNotConfirmed)
}

func TestRequestEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.service.RequestEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	f.signup(t, "user@example.com", "secret123")

	already, err := f.service.RequestEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.False(t, already)

	// Signup sent one, the explicit request sends another.
	assert.Eventually(t, func() bool {
		return f.notifier.confirmationCount() == 2
	}, time.Second, 10*time.Millisecond)

	f.confirm(t, "user@example.com")

	already, err = f.service.RequestEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.True(t, already)
}
