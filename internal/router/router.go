package router

import (
	"log"

	"github.com/gymbro-app/backend/internal/feed"
	"github.com/gymbro-app/backend/internal/handlers"
	"github.com/gymbro-app/backend/internal/middleware"
	"github.com/gymbro-app/backend/internal/models"
	"github.com/gymbro-app/backend/internal/notifications"
	"github.com/gymbro-app/backend/internal/realtime"
	"github.com/gymbro-app/backend/internal/repositories"
	"github.com/gymbro-app/backend/pkg/config"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, cfg *config.Config) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORSWithConfig(eMiddleware.CORSConfig{
		AllowOrigins: []string{cfg.ClientURL},
	}))
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, pgdb *gorm.DB, mgClient *mongo.Client) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	handlers.RegisterHealthRoutes(e)

	// --- Initialize Repositories ---
	mgdb := mgClient.Database(cfg.MongoDBName)
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	followRepo := repositories.NewPostgresFollowRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	threadRepo := repositories.NewMongoThreadRepository(mgdb)
	commentRepo := repositories.NewMongoCommentRepository(mgdb)
	repostRepo := repositories.NewMongoRepostRepository(mgdb)
	savedThreadRepo := repositories.NewMongoSavedThreadRepository(mgdb)

	// --- Core services ---
	hub := realtime.NewHub(cfg.JWTSecret)
	dispatcher := notifications.NewDispatcher(notificationRepo, hub.Registry())
	inbox := notifications.NewInbox(notificationRepo)
	assembler := feed.NewAssembler(threadRepo, followRepo)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// Realtime endpoint authenticates its own token
	e.GET("/ws", hub.HandleWS)
	log.Println("WebSocket endpoint configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	// Thread routes
	threadHandler := handlers.NewThreadHandler(threadRepo, repostRepo, followRepo, userRepo, commentRepo, savedThreadRepo, dispatcher)
	threadHandler.RegisterThreadRoutes(api)
	log.Println("Thread routes configured.")

	// Feed routes
	feedHandler := handlers.NewFeedHandler(assembler, userRepo, commentRepo, repostRepo, savedThreadRepo)
	feedHandler.RegisterFeedRoutes(api)
	log.Println("Feed routes configured.")

	// Follow routes
	followHandler := handlers.NewFollowHandler(followRepo, userRepo, dispatcher)
	followHandler.RegisterFollowRoutes(api)
	log.Println("Follow routes configured.")

	// Comment routes
	commentHandler := handlers.NewCommentHandler(commentRepo, threadRepo, userRepo, dispatcher)
	commentHandler.RegisterCommentRoutes(api)
	log.Println("Comment routes configured.")

	// Saved thread routes
	savedThreadHandler := handlers.NewSavedThreadHandler(savedThreadRepo, threadRepo)
	savedThreadHandler.RegisterSavedThreadRoutes(api)
	log.Println("Saved thread routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(inbox, userRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	log.Println("All routes configured.")
}
