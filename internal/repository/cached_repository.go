package repository

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Kosench/shortlink/internal/cache"
	"github.com/Kosench/shortlink/internal/model"
)

// tombstoneGrace outlives any cache fill that raced with a delete.
const tombstoneGrace = time.Minute

// CachedLinkRepository - репозиторий с кэшированием поиска по коду.
// Ошибки кэша логируются и никогда не прерывают операцию.
type CachedLinkRepository struct {
	LinkStore
	cache  cache.CacheManager
	keys   *cache.KeyBuilder
	logger *zap.Logger
}

func NewCachedLinkRepository(store LinkStore, c cache.CacheManager, logger *zap.Logger) *CachedLinkRepository {
	return &CachedLinkRepository{
		LinkStore: store,
		cache:     c,
		keys:      c.Keys(),
		logger:    logger,
	}
}

// GetByCode сначала проверяет кэш, затем БД
func (r *CachedLinkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	linkKey := r.keys.Link(code)
	tombKey := r.keys.Tombstone(code)

	values, err := r.cache.GetMultiple(ctx, []string{linkKey, tombKey})
	if err != nil {
		r.logger.Warn("cache lookup failed", zap.String("code", code), zap.Error(err))
		return r.LinkStore.GetByCode(ctx, code)
	}

	_, deletedRecently := values[tombKey]
	if raw, ok := values[linkKey]; ok && !deletedRecently {
		var cached model.Link
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &cached, nil
		}
		r.logger.Warn("dropping unreadable cache entry", zap.String("key", linkKey))
	}

	// Cache miss - идем в БД
	link, err := r.LinkStore.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !deletedRecently {
		if err := r.cache.Set(ctx, linkKey, link); err != nil {
			r.logger.Warn("failed to cache link", zap.String("code", code), zap.Error(err))
		}
	}

	return link, nil
}

// Delete removes the link, then drops its cached code mapping and analytics.
func (r *CachedLinkRepository) Delete(ctx context.Context, id int64) error {
	// Повторное чтение по первичному ключу: код нужен для tombstone, а
	// LinkStore.Delete принимает только id.
	link, err := r.LinkStore.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := r.LinkStore.Delete(ctx, id); err != nil {
		return err
	}

	if link.HasShortCode() {
		code := link.Code()
		if err := r.cache.SetWithTTL(ctx, r.keys.Tombstone(code), true, r.cache.TTL()+tombstoneGrace); err != nil {
			r.logger.Warn("failed to write tombstone", zap.String("code", code), zap.Error(err))
		}
		if err := r.cache.Delete(ctx, r.keys.Link(code)); err != nil {
			r.logger.Warn("failed to invalidate link cache", zap.String("code", code), zap.Error(err))
		}
	}

	if err := r.cache.DeletePattern(ctx, r.keys.AnalyticsPattern(id)); err != nil {
		r.logger.Warn("failed to invalidate analytics cache", zap.Int64("link_id", id), zap.Error(err))
	}

	return nil
}
