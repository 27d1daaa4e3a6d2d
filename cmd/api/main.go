package main

import (
	"log"

	_ "streetwalk/api/swagger" // swagger docs
	"streetwalk/internal/config"
	"streetwalk/internal/database"
	"streetwalk/internal/geocode"
	"streetwalk/internal/handler"
	"streetwalk/internal/mailer"
	"streetwalk/internal/middleware"
	"streetwalk/internal/repository"
	"streetwalk/internal/service"
	"streetwalk/internal/storage"
	"streetwalk/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           StreetWalk API
// @version         1.0
// @description     Street-level video and 3D scene sharing with trip price estimates.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg := config.Load()

	dsn := "postgres://" + cfg.DBUser + ":" + cfg.DBPassword + "@" + cfg.DBHost + ":" + cfg.DBPort +
		"/" + cfg.DBName + "?sslmode=" + cfg.DBSSLMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	streetRepo := repository.NewStreetRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	geocodeCacheRepo := repository.NewGeocodeCacheRepository(db)

	uploader := storage.NewSupabaseUploader(cfg.StorageURL, cfg.StorageBucket, cfg.StorageServiceKey, cfg.StorageTimeout)
	resetMailer := mailer.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFromAddress, cfg.MailFromName)
	geocoder := geocode.NewClient(geocodeCacheRepo, geocode.Options{
		BaseURL:     cfg.GeocodeBaseURL,
		UserAgent:   cfg.GeocodeUserAgent,
		MaxAttempts: cfg.GeocodeMaxAttempts,
		BaseSleep:   cfg.GeocodeBaseSleep,
		Timeout:     cfg.GeocodeTimeout,
		PositiveTTL: cfg.GeocodePositiveTTL,
		NegativeTTL: cfg.GeocodeNegativeTTL,
	})

	userService := service.NewUserService(userRepo, tokenRepo, service.NewGoogleVerifier(), resetMailer, cfg)
	streetService := service.NewStreetService(streetRepo, uploader, cfg)
	tripService := service.NewTripService(geocoder)
	activityService := service.NewActivityService(activityRepo)

	auth := middleware.NewAuth([]byte(cfg.JWTSecret), userRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService, auth)
	streetHandler := handler.NewStreetHandler(streetService, auth, wsHub)
	tripHandler := handler.NewTripHandler(tripService)
	activityHandler := handler.NewActivityHandler(activityService, auth)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, []byte(cfg.JWTSecret))
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	streetHandler.RegisterRoutes(router.Group(""))
	tripHandler.RegisterRoutes(router.Group(""))
	activityHandler.RegisterRoutes(router.Group(""))

	log.Printf("Server listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
