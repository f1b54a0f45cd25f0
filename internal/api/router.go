package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecoguardians/energy-settlement/internal/api/handler"
	"github.com/ecoguardians/energy-settlement/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	factoryHandler *handler.FactoryHandler,
	tradeHandler *handler.TradeHandler,
	authHandler *handler.AuthHandler,
) {
	// CorrelationID runs first so the logger and recovery middleware can
	// attach the id to their output.
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Factory operations
		factories := v1.Group("/factories")
		{
			factories.POST("", factoryHandler.Register)
			factories.GET("", factoryHandler.List)
			factories.GET("/:id", factoryHandler.GetByID)
			factories.GET("/:id/status", factoryHandler.EnergyStatus)
			factories.GET("/:id/history", factoryHandler.History)
			factories.GET("/:id/trades", tradeHandler.ListByFactory)
			factories.POST("/:id/mint", factoryHandler.Mint)
			factories.POST("/:id/transfer", factoryHandler.Transfer)
			factories.PUT("/:id/available-energy", factoryHandler.UpdateAvailableEnergy)
			factories.PUT("/:id/daily-consumption", factoryHandler.UpdateDailyConsumption)
		}

		// Trade operations
		trades := v1.Group("/trades")
		{
			trades.POST("", tradeHandler.Create)
			trades.GET("/:id", tradeHandler.GetByID)
			trades.POST("/:id/execute", tradeHandler.Execute)
		}

		// Authentication operations
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/change-password", authHandler.ChangePassword)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
