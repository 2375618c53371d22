package router

import "github.com/gin-gonic/gin"

func (r *Router) contactRoutes(version *gin.RouterGroup) {
	contacts := version.Group("/contacts")
	{
		contacts.Use(r.authMw.RequireAuth())
		{
			contacts.GET("", r.contactHandler.List)
			// Path names carried over from the previous API revision so
			// existing clients keep working.
			contacts.GET("/contacts", r.contactHandler.Search)
			contacts.GET("/birthday", r.contactHandler.Birthdays)
			contacts.GET("/:id", r.contactHandler.Get)
			contacts.POST("", r.contactHandler.Create)
			contacts.PUT("/:id", r.contactHandler.Update)
			contacts.DELETE("/:id", r.contactHandler.Delete)
		}
	}
}
