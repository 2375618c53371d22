package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contactdesk/contacts-api/config"
	"github.com/contactdesk/contacts-api/internal/constants"
	"github.com/contactdesk/contacts-api/internal/handler"
	"github.com/contactdesk/contacts-api/internal/middleware"
)

type Router struct {
	authHandler    *handler.AuthHandler
	contactHandler *handler.ContactHandler
	userHandler    *handler.UserHandler
	healthHandler  *handler.HealthHandler

	authMw *middleware.AuthMiddleware
	Config *config.Config
}

func NewRouter(
	auth *handler.AuthHandler,
	contact *handler.ContactHandler,
	user *handler.UserHandler,
	health *handler.HealthHandler,

	authMw *middleware.AuthMiddleware,
	config *config.Config,
) *Router {
	return &Router{
		authHandler:    auth,
		contactHandler: contact,
		userHandler:    user,
		healthHandler:  health,

		authMw: authMw,
		Config: config,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	if r.Config.App.Environment == constants.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.ContextMiddleware(r.Config.App.Name, r.Config.App.Timeout))
	router.Use(middleware.CORS())

	api := router.Group("/api")
	{
		api.GET("/health", r.healthHandler.Health)

		v1 := api.Group("/v1")
		{
			v1.Use(middleware.RateLimit(r.Config.RateLimit.Request, time.Duration(r.Config.RateLimit.Duration)*time.Second))

			r.authRoutes(v1)
			r.userRoutes(v1)
			r.contactRoutes(v1)
		}
	}

	return router
}
