package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kosench/shortlink/internal/service"
)

type Resolver interface {
	Resolve(ctx context.Context, code string, meta service.ClickMeta) (string, error)
}

type RedirectHandler struct {
	resolver Resolver
	logger   *zap.Logger
}

func NewRedirectHandler(resolver Resolver, logger *zap.Logger) *RedirectHandler {
	return &RedirectHandler{resolver: resolver, logger: logger}
}

// Redirect answers 302 to the destination or 404. The click is recorded
// asynchronously by the resolver.
func (h *RedirectHandler) Redirect(c *gin.Context) {
	destination, err := h.resolver.Resolve(c.Request.Context(), c.Param("code"), service.ClickMeta{
		Referer:   c.Request.Referer(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, destination)
}
