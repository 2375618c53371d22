package service

import (
	"errors"
	"time"

	"github.com/contactdesk/contacts-api/config"
	apperrors "github.com/contactdesk/contacts-api/internal/errors"
	"github.com/golang-jwt/jwt/v5"
)

// Token scopes: access and refresh tokens are distinct types with different
// lifetimes; email tokens prove control of an address.
const (
	ScopeAccess  = "access_token"
	ScopeRefresh = "refresh_token"
	ScopeEmail   = "email_token"
)

// JWTService issues and decodes the three bearer token types. Every token
// carries sub = user email.
type JWTService struct {
	secretKey  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	emailTTL   time.Duration
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secretKey:  cfg.Secret,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		emailTTL:   cfg.EmailTTL,
	}
}

// AccessTTL exposes the access token lifetime for response shaping
func (s *JWTService) AccessTTL() time.Duration {
	return s.accessTTL
}

func (s *JWTService) sign(email, scope string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   email,
		"scope": scope,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}

// CreateAccessToken issues a short-lived token for request authentication
func (s *JWTService) CreateAccessToken(email string) (string, error) {
	return s.sign(email, ScopeAccess, s.accessTTL)
}

// CreateRefreshToken issues a long-lived token used solely to mint new
// access tokens
func (s *JWTService) CreateRefreshToken(email string) (string, error) {
	return s.sign(email, ScopeRefresh, s.refreshTTL)
}

// CreateEmailToken issues the signed token embedded in confirmation links
func (s *JWTService) CreateEmailToken(email string) (string, error) {
	return s.sign(email, ScopeEmail, s.emailTTL)
}

func (s *JWTService) decode(tokenString, expectedScope string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.secretKey), nil
	})
	if err != nil {
		return "", apperrors.WrapError(apperrors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", apperrors.ErrInvalidToken
	}

	scope, _ := claims["scope"].(string)
	if scope != expectedScope {
		return "", apperrors.ErrInvalidTokenScope
	}

	email, _ := claims["sub"].(string)
	if email == "" {
		return "", apperrors.ErrInvalidToken
	}

	return email, nil
}

// DecodeAccessToken validates an access token and returns its subject email
func (s *JWTService) DecodeAccessToken(tokenString string) (string, error) {
	return s.decode(tokenString, ScopeAccess)
}

// DecodeRefreshToken validates a refresh token and returns its subject email
func (s *JWTService) DecodeRefreshToken(tokenString string) (string, error) {
	email, err := s.decode(tokenString, ScopeRefresh)
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "INVALID_TOKEN_SCOPE" {
			return "", err
		}
		return "", apperrors.WrapError(apperrors.ErrInvalidRefreshToken, err)
	}
	return email, nil
}

// DecodeEmailToken validates an email-confirmation token and returns its
// subject email
func (s *JWTService) DecodeEmailToken(tokenString string) (string, error) {
	email, err := s.decode(tokenString, ScopeEmail)
	if err != nil {
		return "", apperrors.WrapError(apperrors.ErrInvalidEmailToken, err)
	}
	return email, nil
}
