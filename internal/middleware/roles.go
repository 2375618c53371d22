package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contactdesk/contacts-api/internal/constants"
	apperrors "github.com/contactdesk/contacts-api/internal/errors"
	"github.com/contactdesk/contacts-api/internal/model"
)

// RequireRoles allows the request through only when the authenticated
// user holds one of the given roles. Must run after RequireAuth.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortUnauthorized(c, apperrors.ErrUnauthorized)
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden,
			constants.BuildErrorResponse(apperrors.GetErrorMessage(apperrors.ErrForbidden), nil))
	}
}
