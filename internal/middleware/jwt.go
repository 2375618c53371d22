package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contactdesk/contacts-api/internal/constants"
	apperrors "github.com/contactdesk/contacts-api/internal/errors"
	"github.com/contactdesk/contacts-api/internal/model"
	"github.com/contactdesk/contacts-api/internal/repository"
	"github.com/contactdesk/contacts-api/internal/service"
	ctxutil "github.com/contactdesk/contacts-api/pkg/context"
	"github.com/contactdesk/contacts-api/pkg/logger"
	"github.com/contactdesk/contacts-api/pkg/redis"
)

// AuthMiddleware resolves the authenticated user from the bearer token
// on each request.
type AuthMiddleware struct {
	jwtService *service.JWTService
	repoUser   *repository.UserRepository
	cache      *redis.Client
	cacheTTL   time.Duration
}

// NewAuthMiddleware creates the authentication middleware.
func NewAuthMiddleware(
	jwtService *service.JWTService,
	repoUser *repository.UserRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		repoUser:   repoUser,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

// RequireAuth validates the access token, loads the user (redis first,
// database on miss) and stores it on the gin context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithScope(c.Request.Context(), "middleware", "RequireAuth")

		token, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, apperrors.ErrUnauthorized)
			return
		}

		email, err := m.jwtService.DecodeAccessToken(token)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		user, err := m.resolveUser(c, email)
		if err != nil {
			logger.ErrorWithContext(ctx, "failed to load authenticated user").
				String("email", email).
				Err(err).
				Log()
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				constants.BuildErrorResponse(apperrors.GetErrorMessage(apperrors.ErrInternal), nil))
			return
		}
		if user == nil {
			abortUnauthorized(c, apperrors.ErrInvalidToken)
			return
		}

		c.Set(constants.CtxUser, user)
		c.Set(constants.CtxUserID, user.ID)
		c.Set(constants.CtxUserEmail, user.Email)

		reqCtx := ctxutil.WithUserEmail(c.Request.Context(), user.Email)
		reqCtx = ctxutil.WithUserID(reqCtx, user.ID)
		c.Request = c.Request.WithContext(reqCtx)

		c.Next()
	}
}

func (m *AuthMiddleware) resolveUser(c *gin.Context, email string) (*model.User, error) {
	ctx := c.Request.Context()
	cacheKey := constants.CacheKeyUser + email

	var cached model.User
	if hit, err := m.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	} else if err != nil {
		logger.WarnWithContext(ctx, "user cache read failed, falling back to database").
			Err(err).
			Log()
	}

	user, err := m.repoUser.GetByEmail(ctx, email)
	if err != nil || user == nil {
		return user, err
	}

	if err := m.cache.Set(ctx, cacheKey, user, m.cacheTTL); err != nil {
		logger.WarnWithContext(ctx, "user cache write failed").
			Err(err).
			Log()
	}
	return user, nil
}

// CurrentUser returns the authenticated user stored by RequireAuth.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	value, exists := c.Get(constants.CtxUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*model.User)
	return user, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func abortUnauthorized(c *gin.Context, err error) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		constants.BuildErrorResponse(apperrors.GetErrorMessage(err), nil))
}
