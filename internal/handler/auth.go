package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/contactdesk/contacts-api/internal/constants"
	"github.com/contactdesk/contacts-api/internal/dto"
	apperrors "github.com/contactdesk/contacts-api/internal/errors"
	"github.com/contactdesk/contacts-api/internal/service"
	ctxutil "github.com/contactdesk/contacts-api/pkg/context"
	"github.com/contactdesk/contacts-api/pkg/logger"
)

// AuthHandler exposes the authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup registers a new account and schedules the confirmation email.
func (h *AuthHandler) Signup(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "handler", "Signup")

	var req dto.SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Signup(ctx, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.InfoWithContext(ctx, "user registered").
		String("email", user.Email).
		Log()

	c.JSON(http.StatusCreated, gin.H{
		"user":   user,
		"detail": "User successfully created. Check your email for confirmation.",
	})
}

// Login exchanges credentials for an access/refresh token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "handler", "Login")

	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// RefreshToken rotates the token pair. The refresh token is presented
// as a bearer token in the Authorization header.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "handler", "RefreshToken")

	token, ok := refreshBearerToken(c)
	if !ok {
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized,
			constants.BuildErrorResponse(apperrors.GetErrorMessage(apperrors.ErrUnauthorized), nil))
		return
	}

	tokens, err := h.authService.RefreshTokens(ctx, token)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// ConfirmEmail marks the account behind the token as confirmed.
// Confirming twice is not an error.
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "handler", "ConfirmEmail")

	token := c.Param("token")

	alreadyConfirmed, err := h.authService.ConfirmEmail(ctx, token)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Email confirmed"
	if alreadyConfirmed {
		message = "Your email is already confirmed"
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse(message))
}

// RequestEmail re-sends the confirmation email for an unconfirmed
// account.
func (h *AuthHandler) RequestEmail(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "handler", "RequestEmail")

	var req dto.RequestEmailRequest
	if !bindJSON(c, &req) {
		return
	}

	alreadyConfirmed, err := h.authService.RequestEmail(ctx, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Check your email for confirmation."
	if alreadyConfirmed {
		message = "Your email is already confirmed"
	}
	c.JSON(http.StatusOK, constants.BuildSuccessResponse(message))
}

// ChangePassword verifies the current password and replaces it.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "handler", "ChangePassword")

	var req dto.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.ChangePassword(ctx, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.InfoWithContext(ctx, "password changed").
		String("email", user.Email).
		Log()

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"detail": "Password successfully changed",
	})
}

// ResetPassword generates a new password and emails it to the account.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	ctx := ctxutil.WithScope(c.Request.Context(), "handler", "ResetPassword")

	var req dto.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.ResetPassword(ctx, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.InfoWithContext(ctx, "password reset").
		String("email", user.Email).
		Log()

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"detail": "Password successfully reset. Check your email for the new password.",
	})
}

func refreshBearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
