package api

import (
	"github.com/RishiKendai/argus/internal/config"
	"github.com/gin-gonic/gin"
)

// SetupRoutes wires middleware and endpoints around an assembled handler.
func SetupRoutes(cfg *config.Config, handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(ErrorHandlerMiddleware())

	rateLimiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Health stays outside the auth chain
	router.GET("/health", handler.Health)

	api := router.Group("/api/v1")
	api.Use(JWTAuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	api.Use(RateLimitMiddleware(rateLimiter))
	{
		api.POST("/submissions", handler.UploadSubmission)
		api.GET("/submissions/:id", handler.GetSubmission)
		api.POST("/feedback/:id/approve", handler.ApproveFeedback)
		api.POST("/feedback/:id/reject", handler.RejectFeedback)
		api.GET("/reports", handler.ListReports)
		api.GET("/reports/:id", handler.GetReport)
		api.POST("/reports/:id/review", handler.ReviewReport)
		api.POST("/reports/:id/dismiss", handler.DismissReport)
	}

	return router
}
