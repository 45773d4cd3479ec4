package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
	"github.com/Kosench/shortlink/internal/utils"
)

type CodeLookup interface {
	GetByCode(ctx context.Context, code string) (*model.Link, error)
}

// ClickScheduler accepts one event per successful resolution.
type ClickScheduler interface {
	Record(event *model.ClickEvent)
}

// ClickMeta describes the request that triggered a resolution.
type ClickMeta struct {
	Referer   string
	UserAgent string
}

type Resolver struct {
	links    CodeLookup
	clicks   ClickScheduler
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

func NewResolver(links CodeLookup, clicks ClickScheduler, location *time.Location, logger *zap.Logger) *Resolver {
	if location == nil {
		location = time.UTC
	}
	return &Resolver{
		links:    links,
		clicks:   clicks,
		location: location,
		now:      time.Now,
		logger:   logger,
	}
}

// Resolve returns the destination for code and schedules its click.
// Unknown, QR-only and inactive links are ErrLinkNotFound; store failures
// stay ErrStoreUnavailable.
func (r *Resolver) Resolve(ctx context.Context, code string, meta ClickMeta) (string, error) {
	if !utils.IsValidShortCode(code) {
		return "", fmt.Errorf("short code '%s': %w", code, apperrors.ErrLinkNotFound)
	}

	link, err := r.links.GetByCode(ctx, code)
	if err != nil {
		return "", err
	}

	if !link.HasShortCode() || !link.Active {
		return "", fmt.Errorf("short code '%s': %w", code, apperrors.ErrLinkNotFound)
	}

	occurredAt := r.now()
	r.clicks.Record(&model.ClickEvent{
		EventID:    uuid.NewString(),
		LinkID:     link.ID,
		OccurredAt: occurredAt,
		Day:        dayKey(occurredAt, r.location),
		Referer:    truncate(meta.Referer, maxMetaLength),
		UserAgent:  truncate(meta.UserAgent, maxMetaLength),
	})

	r.logger.Debug("link resolved", zap.String("short_code", code), zap.Int64("link_id", link.ID))

	return link.DestinationURL, nil
}

const maxMetaLength = 512

// truncate drops invalid UTF-8 and cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

const dayLayout = "2006-01-02"

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayLayout)
}
