package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contactdesk/contacts-api/internal/middleware"
)

func (r *Router) authRoutes(version *gin.RouterGroup) {
	auth := version.Group("/auth")
	{
		// Sensitive endpoints get a tighter per-IP window
		limited := auth.Group("")
		limited.Use(middleware.RateLimit(
			r.Config.RateLimit.AuthRequest,
			time.Duration(r.Config.RateLimit.AuthDuration)*time.Second,
		))
		{
			limited.POST("/signup", r.authHandler.Signup)
			limited.POST("/login", r.authHandler.Login)
			limited.POST("/change_password", r.authHandler.ChangePassword)
			limited.POST("/reset_password", r.authHandler.ResetPassword)
			limited.POST("/request_email", r.authHandler.RequestEmail)
		}

		auth.GET("/refresh_token", r.authHandler.RefreshToken)
		auth.GET("/confirmed_email/:token", r.authHandler.ConfirmEmail)
	}
}
