package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
)

type LinkService interface {
	CreateShortLink(ctx context.Context, ownerID string, req *model.CreateLinkRequest) (*model.LinkResponse, error)
	CreateQROnly(ctx context.Context, ownerID string, req *model.CreateLinkRequest) (*model.LinkResponse, error)
	GetLink(ctx context.Context, ownerID string, id int64) (*model.LinkResponse, error)
	ListLinks(ctx context.Context, ownerID string, limit, offset int) (*model.LinkListResponse, error)
	DeleteLink(ctx context.Context, ownerID string, id int64) error
}

type AnalyticsService interface {
	LinkAnalytics(ctx context.Context, ownerID string, linkID int64, days int) (*model.AnalyticsResponse, error)
}

type LinkHandler struct {
	links     LinkService
	analytics AnalyticsService
	logger    *zap.Logger
}

func NewLinkHandler(links LinkService, analytics AnalyticsService, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		links:     links,
		analytics: analytics,
		logger:    logger,
	}
}

func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req model.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format",
		})
		return
	}

	response, err := h.links.CreateShortLink(c.Request.Context(), OwnerID(c), &req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *LinkHandler) CreateQR(c *gin.Context) {
	var req model.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format",
		})
		return
	}

	response, err := h.links.CreateQROnly(c.Request.Context(), OwnerID(c), &req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *LinkHandler) ListLinks(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	response, err := h.links.ListLinks(c.Request.Context(), OwnerID(c), limit, offset)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *LinkHandler) GetLink(c *gin.Context) {
	id, ok := h.linkID(c)
	if !ok {
		return
	}

	response, err := h.links.GetLink(c.Request.Context(), OwnerID(c), id)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *LinkHandler) DeleteLink(c *gin.Context) {
	id, ok := h.linkID(c)
	if !ok {
		return
	}

	if err := h.links.DeleteLink(c.Request.Context(), OwnerID(c), id); err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *LinkHandler) GetAnalytics(c *gin.Context) {
	id, ok := h.linkID(c)
	if !ok {
		return
	}

	days, err := queryInt(c, "days", 0)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	response, err := h.analytics.LinkAnalytics(c.Request.Context(), OwnerID(c), id, days)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// linkID parses :id; malformed ids look like missing links.
func (h *LinkHandler) linkID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		handleError(c, h.logger, apperrors.ErrLinkNotFound)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(name, name+" must be an integer")
	}
	return v, nil
}
