package main

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	configs "github.com/contactdesk/contacts-api/config"
	"github.com/contactdesk/contacts-api/internal/constants"
	"github.com/contactdesk/contacts-api/internal/handler"
	"github.com/contactdesk/contacts-api/internal/middleware"
	"github.com/contactdesk/contacts-api/internal/repository"
	"github.com/contactdesk/contacts-api/internal/router"
	"github.com/contactdesk/contacts-api/internal/service"
	"github.com/contactdesk/contacts-api/pkg/database"
	"github.com/contactdesk/contacts-api/pkg/gravatar"
	"github.com/contactdesk/contacts-api/pkg/logger"
	"github.com/contactdesk/contacts-api/pkg/mailer"
	"github.com/contactdesk/contacts-api/pkg/redis"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize Zap logger
	if err := logger.InitLogger(config.App.Environment); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("version", constants.AppVersion),
	)

	db, err := database.NewPostgresDB(database.Config{
		Host:            config.Database.Host,
		Port:            config.Database.Port,
		User:            config.Database.User,
		Password:        config.Database.Password,
		Database:        config.Database.Name,
		SSLMode:         config.Database.SSLMode,
		MaxIdleConns:    config.Database.MaxIdleConns,
		MaxOpenConns:    config.Database.MaxOpenConns,
		ConnMaxLifetime: config.Database.ConnMaxLifetime,
		ConnMaxIdleTime: config.Database.ConnMaxIdleTime,
	})
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	if err := database.SeedAdmin(db, config.Admin.Email, config.Admin.Password); err != nil {
		// Don't fail - the admin may already exist
		logger.GetLogger().Error("Failed to seed admin user", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	contactRepo := repository.NewContactRepository(db)

	redisClient := redis.NewClient(redis.Config{
		Address:      config.RedisAddress(),
		Password:     config.Redis.Password,
		Database:     config.Redis.Database,
		Enabled:      config.Redis.Enabled,
		PoolSize:     config.Redis.PoolSize,
		MinIdleConns: config.Redis.MinIdleConns,
	}, logger.GetLogger())
	defer redisClient.Close()

	// Outbound capabilities
	avatars := gravatar.NewLookup()
	mail, err := mailer.NewMailer(mailer.Config{
		Host:      config.Mail.Host,
		Port:      config.Mail.Port,
		Username:  config.Mail.Username,
		Password:  config.Mail.Password,
		From:      config.Mail.From,
		FromName:  config.Mail.FromName,
		AppName:   config.App.Name,
		PublicURL: config.App.PublicURL,
		TokenTTL:  config.JWT.EmailTTL.String(),
	})
	if err != nil {
		logger.GetLogger().Fatal("Failed to initialize mailer", zap.Error(err))
	}

	// Services
	jwtService := service.NewJWTService(config.JWT)
	authService := service.NewAuthService(userRepo, jwtService, avatars, mail, redisClient)
	contactService := service.NewContactService(contactRepo)
	userService := service.NewUserService(userRepo, redisClient)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	contactHandler := handler.NewContactHandler(contactService)
	userHandler := handler.NewUserHandler(userService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	authMiddleware := middleware.NewAuthMiddleware(jwtService, userRepo, redisClient, config.Redis.UserCacheTTL)

	r := router.NewRouter(
		authHandler,
		contactHandler,
		userHandler,
		healthHandler,

		authMiddleware,
		config,
	).SetupRoutes()

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := r.Run(":" + config.App.Port); err != nil {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")
}
