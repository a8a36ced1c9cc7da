package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yieldai/bridge_service/internal/api/handlers"
	"github.com/yieldai/bridge_service/internal/api/middleware"
	"github.com/yieldai/bridge_service/internal/infrastructure/di"
	"github.com/yieldai/bridge_service/pkg/tracing"
)

// SetupRoutes configures all application routes
func SetupRoutes(container *di.Container) *gin.Engine {
	router := gin.New()

	// Global middleware - order matters
	router.Use(tracing.HTTPMiddleware()) // Tracing should be early in the chain
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestSizeLimit())
	router.Use(middleware.Logger(container.Logger))
	router.Use(middleware.Recovery(container.Logger))
	router.Use(middleware.CORS(container.Config.Server.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())

	coreHandlers := handlers.NewCoreHandlers(container.HealthProbes(), container.Config.Version, container.Logger)
	bridgeHandlers := handlers.NewBridgeHandlers(container.GetBridgeService(), container.Logger)

	// Health checks (no rate limit)
	router.GET("/health", coreHandlers.Health)
	router.GET("/live", coreHandlers.Live)
	router.GET("/metrics", handlers.Metrics())

	rateLimiter := middleware.NewRateLimiter(container.Config.Server.RateLimitPerMin)

	api := router.Group("/api")
	api.Use(rateLimiter.Limit())
	{
		api.POST("/aptos/mint-cctp", bridgeHandlers.MintCCTP)

		transfers := api.Group("/bridge/transfers")
		{
			transfers.POST("", bridgeHandlers.TrackTransfer)
			transfers.GET("/:signature", bridgeHandlers.GetTransfer)
		}
	}

	return router
}
