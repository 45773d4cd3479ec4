package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/Kosench/shortlink/internal/errors"
)

// handleError обрабатывает ошибки и возвращает соответствующие HTTP коды
func handleError(c *gin.Context, logger *zap.Logger, err error) {
	// Проверяем ValidationError
	if apperrors.IsValidationError(err) {
		validationErr := apperrors.GetValidationError(err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": validationErr.Message,
			"field":   validationErr.Field,
		})
		return
	}

	if apperrors.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "link_not_found",
			"message": "Link not found",
		})
		return
	}

	if errors.Is(err, apperrors.ErrGenerationExhausted) {
		logger.Warn("short code generation exhausted", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "generation_exhausted",
			"message":   "Could not allocate a short code, please retry",
			"code":      apperrors.CodeGenerationExhausted,
			"retryable": true,
		})
		return
	}

	if apperrors.IsStoreUnavailable(err) {
		logger.Error("store unavailable", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "service_unavailable",
			"message": "Service temporarily unavailable",
			"code":    apperrors.CodeStoreUnavailable,
		})
		return
	}

	// Проверяем BusinessError
	if apperrors.IsBusinessError(err) {
		businessErr := apperrors.GetBusinessError(err)
		logger.Error("business error", zap.String("code", businessErr.Code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "business_error",
			"message": businessErr.Message,
			"code":    businessErr.Code,
		})
		return
	}

	// Неизвестная ошибка
	logger.Error("unexpected error", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": "An unexpected error occurred",
	})
}
