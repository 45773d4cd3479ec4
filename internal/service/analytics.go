package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Kosench/shortlink/internal/cache"
	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
	"github.com/Kosench/shortlink/internal/repository"
)

const (
	DefaultSeriesDays = 7
	MaxSeriesDays     = 90

	analyticsTTL = time.Minute
)

type cachedSeries struct {
	ToDay  string             `json:"to_day"`
	Series []model.DailyClick `json:"series"`
}

// Analytics builds day-bucketed click series from the click event log.
type Analytics struct {
	store       repository.LinkStore
	cache       cache.CacheManager
	location    *time.Location
	defaultDays int
	now         func() time.Time
	logger      *zap.Logger
}

func NewAnalytics(store repository.LinkStore, c cache.CacheManager, location *time.Location, defaultDays int, logger *zap.Logger) *Analytics {
	if c == nil {
		c = cache.NewNullCache()
	}
	if location == nil {
		location = time.UTC
	}
	if defaultDays <= 0 || defaultDays > MaxSeriesDays {
		defaultDays = DefaultSeriesDays
	}
	return &Analytics{
		store:       store,
		cache:       c,
		location:    location,
		defaultDays: defaultDays,
		now:         time.Now,
		logger:      logger,
	}
}

// DailySeries returns exactly days entries, oldest first, ending today.
// days == 0 selects the configured default.
func (a *Analytics) DailySeries(ctx context.Context, linkID int64, days int) ([]model.DailyClick, error) {
	if days == 0 {
		days = a.defaultDays
	}
	if days < 1 || days > MaxSeriesDays {
		return nil, apperrors.NewValidationError("days", fmt.Sprintf("days must be between 1 and %d", MaxSeriesDays))
	}

	// Deleted links have no series, cached or not.
	if _, err := a.store.GetByID(ctx, linkID); err != nil {
		return nil, err
	}

	dates := a.window(days)
	today := dates[len(dates)-1]
	past := dates[:len(dates)-1]

	history, err := a.pastCounts(ctx, linkID, days, past)
	if err != nil {
		return nil, err
	}

	// Сегодняшний день всегда читаем из базы
	live, err := a.store.CountClicksByDay(ctx, linkID, today, today)
	if err != nil {
		return nil, fmt.Errorf("failed to load click history: %w", err)
	}

	series := make([]model.DailyClick, 0, len(dates))
	series = append(series, history...)
	series = append(series, model.DailyClick{Date: today, Count: live[today]})

	return series, nil
}

// pastCounts returns the closed days of the window. A closed day only moves
// when a queued click lands after midnight, bounded by analyticsTTL, or when
// the link is deleted, which drops the entry.
func (a *Analytics) pastCounts(ctx context.Context, linkID int64, days int, past []string) ([]model.DailyClick, error) {
	if len(past) == 0 {
		return nil, nil
	}

	lastDay := past[len(past)-1]
	key := a.cache.Keys().Analytics(linkID, days)

	var cached cachedSeries
	err := a.cache.Get(ctx, key, &cached)
	switch {
	case err == nil && cached.ToDay == lastDay && len(cached.Series) == len(past):
		return cached.Series, nil
	case err != nil && !cache.IsCacheMiss(err):
		a.logger.Warn("analytics cache read failed", zap.Int64("link_id", linkID), zap.Error(err))
	}

	counts, err := a.store.CountClicksByDay(ctx, linkID, past[0], lastDay)
	if err != nil {
		return nil, fmt.Errorf("failed to load click history: %w", err)
	}

	history := make([]model.DailyClick, len(past))
	for i, date := range past {
		history[i] = model.DailyClick{Date: date, Count: counts[date]}
	}

	if err := a.cache.SetWithTTL(ctx, key, cachedSeries{ToDay: lastDay, Series: history}, analyticsTTL); err != nil {
		a.logger.Warn("failed to cache analytics", zap.Int64("link_id", linkID), zap.Error(err))
	}

	return history, nil
}

// LinkAnalytics is DailySeries for a link the owner holds.
func (a *Analytics) LinkAnalytics(ctx context.Context, ownerID string, linkID int64, days int) (*model.AnalyticsResponse, error) {
	link, err := a.store.GetByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link.OwnerID != ownerID {
		return nil, fmt.Errorf("link %d: %w", linkID, apperrors.ErrLinkNotFound)
	}

	series, err := a.DailySeries(ctx, linkID, days)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, d := range series {
		total += d.Count
	}

	return &model.AnalyticsResponse{
		LinkID: linkID,
		Days:   len(series),
		Total:  total,
		Series: series,
	}, nil
}

// window lists the calendar days ending today in the analytics location.
func (a *Analytics) window(days int) []string {
	today := a.now().In(a.location)
	y, m, d := today.Date()

	dates := make([]string, days)
	for i := 0; i < days; i++ {
		// Noon keeps DST transitions from skipping or repeating a date.
		day := time.Date(y, m, d-(days-1-i), 12, 0, 0, 0, a.location)
		dates[i] = day.Format(dayLayout)
	}
	return dates
}
