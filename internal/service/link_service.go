package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
	"github.com/Kosench/shortlink/internal/repository"
	"github.com/Kosench/shortlink/internal/utils"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type LinkService struct {
	store     repository.LinkStore
	generator *CodeGenerator
	baseURL   string
	now       func() time.Time
	logger    *zap.Logger
}

func NewLinkService(store repository.LinkStore, generator *CodeGenerator, baseURL string, logger *zap.Logger) *LinkService {
	return &LinkService{
		store:     store,
		generator: generator,
		baseURL:   strings.TrimRight(baseURL, "/"),
		now:       time.Now,
		logger:    logger,
	}
}

// CreateShortLink validates the destination and allocates a short code for it.
func (s *LinkService) CreateShortLink(ctx context.Context, ownerID string, req *model.CreateLinkRequest) (*model.LinkResponse, error) {
	destination, err := s.validate(ownerID, req)
	if err != nil {
		return nil, err
	}

	link, err := s.generator.Generate(ctx, ownerID, destination)
	if err != nil {
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	s.logger.Info("link created",
		zap.Int64("link_id", link.ID),
		zap.String("short_code", link.Code()),
		zap.String("owner_id", ownerID),
	)

	return s.toResponse(link), nil
}

// CreateQROnly stores a link without a short code. It exists only so a
// scannable code can be rendered for the destination.
func (s *LinkService) CreateQROnly(ctx context.Context, ownerID string, req *model.CreateLinkRequest) (*model.LinkResponse, error) {
	destination, err := s.validate(ownerID, req)
	if err != nil {
		return nil, err
	}

	link := &model.Link{
		OwnerID:        ownerID,
		DestinationURL: destination,
		Active:         true,
		CreatedAt:      s.now().UTC(),
	}

	if _, err := s.store.Insert(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to create qr link: %w", err)
	}

	s.logger.Info("qr link created", zap.Int64("link_id", link.ID), zap.String("owner_id", ownerID))

	return s.toResponse(link), nil
}

func (s *LinkService) GetLink(ctx context.Context, ownerID string, id int64) (*model.LinkResponse, error) {
	link, err := s.ownedLink(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(link), nil
}

// ListLinks returns the owner's links, newest first.
func (s *LinkService) ListLinks(ctx context.Context, ownerID string, limit, offset int) (*model.LinkListResponse, error) {
	if ownerID == "" {
		return nil, apperrors.NewValidationError("owner_id", "owner is required")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		return nil, apperrors.NewValidationError("offset", "offset cannot be negative")
	}

	links, err := s.store.ListByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	resp := &model.LinkListResponse{
		Links:  make([]model.LinkResponse, 0, len(links)),
		Limit:  limit,
		Offset: offset,
	}
	for i := range links {
		resp.Links = append(resp.Links, *s.toResponse(&links[i]))
	}

	return resp, nil
}

// DeleteLink removes an owned link. Links of other owners look absent.
func (s *LinkService) DeleteLink(ctx context.Context, ownerID string, id int64) error {
	if _, err := s.ownedLink(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	s.logger.Info("link deleted", zap.Int64("link_id", id), zap.String("owner_id", ownerID))
	return nil
}

func (s *LinkService) ownedLink(ctx context.Context, ownerID string, id int64) (*model.Link, error) {
	link, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if link.OwnerID != ownerID {
		return nil, fmt.Errorf("link %d: %w", id, apperrors.ErrLinkNotFound)
	}
	return link, nil
}

func (s *LinkService) validate(ownerID string, req *model.CreateLinkRequest) (string, error) {
	if ownerID == "" {
		return "", apperrors.NewValidationError("owner_id", "owner is required")
	}

	destination := utils.SanitizeInput(req.URL)
	if err := utils.ValidateURL(destination); err != nil {
		return "", err
	}

	return destination, nil
}

func (s *LinkService) toResponse(link *model.Link) *model.LinkResponse {
	resp := &model.LinkResponse{
		ID:             link.ID,
		DestinationURL: link.DestinationURL,
		ClickCount:     link.ClickCount,
		Active:         link.Active,
		QROnly:         !link.HasShortCode(),
		CreatedAt:      link.CreatedAt,
	}
	if link.HasShortCode() {
		resp.ShortCode = link.Code()
		resp.ShortURL = s.buildShortURL(link.Code())
	}
	return resp
}

func (s *LinkService) buildShortURL(shortCode string) string {
	return fmt.Sprintf("%s/r/%s", s.baseURL, shortCode)
}
