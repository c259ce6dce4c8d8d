package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/williamcjrogers/VeriCaseJet-sub003/api/handlers"
	"github.com/williamcjrogers/VeriCaseJet-sub003/api/middleware"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/repository"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/tracing"
	"github.com/williamcjrogers/VeriCaseJet-sub003/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, repos *repository.Repositories, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	r.Use(gin.Recovery())

	apiHandlers := handlers.InitHandlers(s.IngestionService)

	// Health endpoint stays open; everything else requires the key.
	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-EVIDENCE-API-KEY",
		ValidAPIKey: apikey,
	})

	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	{
		ingestions := api.Group("/ingestions")
		{
			ingestions.POST("", tracing.TracingEnhancer(ctx, "POST /ingestions"), apiHandlers.Ingestions.Create)
			ingestions.GET("/:id", tracing.TracingEnhancer(ctx, "GET /ingestions/:id"), apiHandlers.Ingestions.Get)
		}

		messages := api.Group("/messages")
		{
			messages.GET("/:id/thread", tracing.TracingEnhancer(ctx, "GET /messages/:id/thread"), apiHandlers.Threads.GetMessageThread)
		}
	}
}
