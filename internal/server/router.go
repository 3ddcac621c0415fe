package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/wellspringapp/wellspring-backend/internal/handlers"
	"github.com/wellspringapp/wellspring-backend/internal/middleware"
	"github.com/wellspringapp/wellspring-backend/internal/types"
)

type RouterConfig struct {
	ServiceName     string
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	UserHandler     *handlers.UserHandler
	ContentHandler  *handlers.ContentHandler
	GenerateHandler *handlers.GenerateHandler
	StatsHandler    *handlers.StatsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorEnvelope{
			Error: handlers.APIError{Message: "not found", Code: "NOT_FOUND"},
		})
	})

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	// Generation
	protected.POST("/ai/generate", cfg.GenerateHandler.Generate)
	// Cross-module rollup
	protected.GET("/wellness/stats", cfg.StatsHandler.WellnessStats)
	// Module content. Routes are static per module: the module set is closed
	// and an unknown segment is a plain 404.
	for _, module := range types.AllModules {
		base := "/" + string(module)
		protected.GET(base, cfg.ContentHandler.List(module))
		protected.POST(base, cfg.ContentHandler.Create(module))
		protected.PUT(base+"/:id", cfg.ContentHandler.Update(module))
		protected.GET(base+"/stats", cfg.StatsHandler.ModuleStats(module))
	}

	return router
}
