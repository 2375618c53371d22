package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactdesk/contacts-api/config"
	apperrors "github.com/contactdesk/contacts-api/internal/errors"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		EmailTTL:   24 * time.Hour,
	})
}

func TestJWTRoundTrips(t *testing.T) {
	svc := newTestJWTService()

	tests := []struct {
		name   string
		create func(string) (string, error)
		decode func(string) (string, error)
	}{
		{"access", svc.CreateAccessToken, svc.DecodeAccessToken},
		{"refresh", svc.CreateRefreshToken, svc.DecodeRefreshToken},
		{"email", svc.CreateEmailToken, svc.DecodeEmailToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tt.create("user@example.com")
			require.NoError(t, err)
			require.NotEmpty(t, token)

			email, err := tt.decode(token)
			require.NoError(t, err)
			assert.Equal(t, "user@example.com", email)
		})
	}
}

func TestJWTScopeIsEnforced(t *testing.T) {
	svc := newTestJWTService()

	access, err := svc.CreateAccessToken("user@example.com")
	require.NoError(t, err)
	refresh, err := svc.CreateRefreshToken("user@example.com")
	require.NoError(t, err)
	emailToken, err := svc.CreateEmailToken("user@example.com")
	require.NoError(t, err)

	// An access token is not a refresh token, and so on for every
	// cross-scope combination.
	_, err = svc.DecodeAccessToken(refresh)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTokenScope)

	_, err = svc.DecodeAccessToken(emailToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTokenScope)

	_, err = svc.DecodeRefreshToken(access)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTokenScope)

	_, err = svc.DecodeEmailToken(access)
	assert.ErrorIs(t, err, apperrors.ErrInvalidEmailToken)
}

func TestJWTRejectsGarbageAndWrongKey(t *testing.T) {
	svc := newTestJWTService()

	_, err := svc.DecodeAccessToken("not-a-token")
	assert.Error(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:     "other-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		EmailTTL:   24 * time.Hour,
	})
	token, err := other.CreateAccessToken("user@example.com")
	require.NoError(t, err)

	_, err = svc.DecodeAccessToken(token)
	assert.Error(t, err)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:     "test-secret",
		AccessTTL:  -time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		EmailTTL:   24 * time.Hour,
	})

	token, err := svc.CreateAccessToken("user@example.com")
	require.NoError(t, err)

	_, err = svc.DecodeAccessToken(token)
	assert.Error(t, err)
}
