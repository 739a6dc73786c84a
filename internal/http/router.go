package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"complaint-service/internal/http/middleware"
	"complaint-service/internal/metrics"
)

func NewRouter(handler *Handler, authMiddleware, writeLimiter gin.HandlerFunc, env string, log zerolog.Logger) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(metrics.Instrument())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:   []string{"Content-Type", "Content-Disposition", middleware.RequestIDHeader},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", handler.health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.GET("/zones", handler.listZones)

		protected.GET("/complaints", handler.listComplaints)
		protected.GET("/complaints/stats", handler.complaintStats)
		protected.GET("/complaints/:id", handler.getComplaint)
		protected.PUT("/complaints/:id/status", handler.updateComplaintStatus)
		protected.POST("/complaints", writeLimiter, handler.createComplaint)
		protected.POST("/complaints/:id/attachments", writeLimiter, handler.addAttachments)

		protected.GET("/attachments/:id", handler.getAttachment)
	}

	return router
}
