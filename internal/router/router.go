package router

import (
	"log"

	"firebase.google.com/go/v4/auth"
	"github.com/greenloop/ecopost/backend/internal/engagement"
	"github.com/greenloop/ecopost/backend/internal/geocode"
	"github.com/greenloop/ecopost/backend/internal/handlers"
	"github.com/greenloop/ecopost/backend/internal/middleware"
	"github.com/greenloop/ecopost/backend/internal/models"
	"github.com/greenloop/ecopost/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, firebaseAuthClient *auth.Client, geocoder *geocode.Client) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.ReactionStats{},
		&models.UserPostReaction{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	postRepo := repositories.NewMongoPostRepository(mgClient.Database("ecopost"))
	reactionRepo := repositories.NewPostgresReactionRepository(pgdb)

	// --- Engagement core ---
	controller := engagement.NewController(reactionRepo, postRepo)
	sessions := engagement.NewManager(controller)

	// --- Authentication routes; firebase-login carries the Firebase guard ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo)
	authHandler.RegisterAuthRoutes(authGroup, middleware.FirebaseAuthMiddleware(firebaseAuthClient))
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	// Post routes
	postHandler := handlers.NewPostHandler(postRepo, reactionRepo, userRepo)
	postHandler.RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	// Feed routes
	feedHandler := handlers.NewFeedHandler(sessions, userRepo)
	feedHandler.RegisterFeedRoutes(api)
	log.Println("Feed routes configured.")

	// Reaction routes
	reactionHandler := handlers.NewReactionHandler(sessions, reactionRepo, postRepo)
	reactionHandler.RegisterReactionRoutes(api)
	log.Println("Reaction routes configured.")

	// Geocoding routes
	geocodeHandler := handlers.NewGeocodeHandler(geocoder)
	geocodeHandler.RegisterGeocodeRoutes(api)
	log.Println("Geocoding routes configured.")

	log.Println("All routes configured.")
}
