package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contactdesk/contacts-api/internal/constants"
	"github.com/contactdesk/contacts-api/internal/dto"
	apperrors "github.com/contactdesk/contacts-api/internal/errors"
	"github.com/contactdesk/contacts-api/internal/middleware"
	"github.com/contactdesk/contacts-api/internal/service"
	ctxutil "github.com/contactdesk/contacts-api/pkg/context"
)

// UserHandler exposes the user profile endpoints.
type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized,
			constants.BuildErrorResponse(apperrors.GetErrorMessage(apperrors.ErrUnauthorized), nil))
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// UpdateAvatar replaces the authenticated user's avatar URL.
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "handler", "UpdateAvatar")

	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized,
			constants.BuildErrorResponse(apperrors.GetErrorMessage(apperrors.ErrUnauthorized), nil))
		return
	}

	var req dto.UpdateAvatarRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.userService.UpdateAvatar(ctx, user.Email, req.Avatar)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// GetAll lists user accounts, paginated, with an optional search term.
// Restricted to admins and moderators by route middleware.
func (h *UserHandler) GetAll(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "handler", "GetAllUsers")

	params := constants.ParsePaginationParams(c)
	search := c.Query("search")

	users, total, _, err := h.userService.GetAll(ctx, params.Limit, params.Offset, search)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildListResponse(total, params.Page, users))
}
