package main

import (
	"context"
	"fmt"
	"os"
	"time"

	rediscache "github.com/wellspringapp/wellspring-backend/internal/clients/redis"
	"github.com/wellspringapp/wellspring-backend/internal/db"
	"github.com/wellspringapp/wellspring-backend/internal/handlers"
	"github.com/wellspringapp/wellspring-backend/internal/logger"
	"github.com/wellspringapp/wellspring-backend/internal/middleware"
	"github.com/wellspringapp/wellspring-backend/internal/observability"
	"github.com/wellspringapp/wellspring-backend/internal/repos"
	"github.com/wellspringapp/wellspring-backend/internal/server"
	"github.com/wellspringapp/wellspring-backend/internal/services"
	"github.com/wellspringapp/wellspring-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "wellspring-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOtel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(ctx)
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	contentItemRepo := repos.NewContentItemRepo(thePG, log)

	// Report cache (optional)
	var reportCache rediscache.ReportCache
	if cache, cacheErr := rediscache.NewReportCache(log); cacheErr != nil {
		log.Warn("Report cache disabled", "error", cacheErr)
	} else {
		reportCache = cache
		defer reportCache.Close()
	}

	// Services
	log.Info("Setting up Services from main...")
	openaiClient, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	contentService := services.NewContentService(thePG, log, contentItemRepo, reportCache)
	generationService := services.NewGenerationService(thePG, log, openaiClient, contentItemRepo, reportCache)
	statsService := services.NewStatsService(thePG, log, contentItemRepo, reportCache)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	contentHandler := handlers.NewContentHandler(contentService)
	generateHandler := handlers.NewGenerateHandler(generationService)
	statsHandler := handlers.NewStatsHandler(statsService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:     "wellspring-backend",
		AuthHandler:     authHandler,
		AuthMiddleware:  authMiddleware,
		UserHandler:     userHandler,
		ContentHandler:  contentHandler,
		GenerateHandler: generateHandler,
		StatsHandler:    statsHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
