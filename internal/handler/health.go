package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kosench/shortlink/internal/service"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

type RecorderStats interface {
	Stats() service.RecorderStats
}

type HealthHandler struct {
	store     Pinger
	cache     CacheChecker // nil when caching is disabled
	recorder  RecorderStats
	dbDriver  string
	dbVersion func(ctx context.Context) (string, error)
}

func NewHealthHandler(store Pinger, cache CacheChecker, recorder RecorderStats, dbDriver string, dbVersion func(ctx context.Context) (string, error)) *HealthHandler {
	return &HealthHandler{
		store:     store,
		cache:     cache,
		recorder:  recorder,
		dbDriver:  dbDriver,
		dbVersion: dbVersion,
	}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	services := gin.H{}
	status := "healthy"

	// Проверяем БД
	if err := h.store.Ping(ctx); err != nil {
		services["database"] = "unhealthy"
		status = "degraded"
	} else {
		services["database"] = "healthy"
	}

	// Проверяем Redis
	switch {
	case h.cache == nil:
		services["cache"] = "disabled"
	case h.cache.HealthCheck(ctx) != nil:
		services["cache"] = "unhealthy"
		status = "degraded"
	default:
		services["cache"] = "healthy"
	}

	statusCode := http.StatusOK
	if status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":   status,
		"services": services,
		"clicks":   h.recorder.Stats(),
	})
}

func (h *HealthHandler) Info(c *gin.Context) {
	info := gin.H{
		"service":         "shortlink",
		"database_driver": h.dbDriver,
		"cache_enabled":   h.cache != nil,
	}

	if h.dbVersion != nil {
		if version, err := h.dbVersion(c.Request.Context()); err == nil {
			info["database_version"] = version
		}
	}

	c.JSON(http.StatusOK, info)
}
