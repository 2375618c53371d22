package router

import (
	"github.com/gin-gonic/gin"

	"github.com/contactdesk/contacts-api/internal/middleware"
	"github.com/contactdesk/contacts-api/internal/model"
)

func (r *Router) userRoutes(version *gin.RouterGroup) {
	users := version.Group("/users")
	{
		users.Use(r.authMw.RequireAuth())
		{
			users.GET("/me", r.userHandler.Me)
			users.PATCH("/avatar", r.userHandler.UpdateAvatar)

			// Account listing is restricted to elevated roles
			users.GET("",
				middleware.RequireRoles(model.RoleAdmin, model.RoleModerator),
				r.userHandler.GetAll,
			)
		}
	}
}
