package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kosench/shortlink/internal/logger"
)

type RouterConfig struct {
	AllowedOrigins []string
	JWTSecret      []byte
	JWTIssuer      string
}

// NewRouter wires middleware and routes.
func NewRouter(cfg RouterConfig, links *LinkHandler, redirects *RedirectHandler, health *HealthHandler, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logger.GinMiddleware(log))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", health.Health)
	router.GET("/info", health.Info)

	api := router.Group("/api", AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer))
	{
		api.POST("/links", links.CreateLink)
		api.GET("/links", links.ListLinks)
		api.GET("/links/:id", links.GetLink)
		api.DELETE("/links/:id", links.DeleteLink)
		api.GET("/links/:id/analytics", links.GetAnalytics)
		api.POST("/qr", links.CreateQR)
	}

	router.GET("/r/:code", redirects.Redirect)

	return router
}
