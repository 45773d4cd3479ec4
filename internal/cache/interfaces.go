package cache

import (
	"context"
	"time"
)

// Cache - основной интерфейс для работы с кэшем
type Cache interface {
	// Базовые операции
	Set(ctx context.Context, key string, value interface{}) error
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	// GetMultiple returns raw values of the keys that exist.
	GetMultiple(ctx context.Context, keys []string) (map[string]string, error)
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error

	// Управление соединением
	HealthCheck(ctx context.Context) error
	Close() error
}

// CacheManager - полный интерфейс кэша
type CacheManager interface {
	Cache

	Keys() *KeyBuilder
	TTL() time.Duration
	FlushCache(ctx context.Context) error
}

// NullCache - заглушка для работы без кэша (Null Object Pattern)
type NullCache struct {
	keys *KeyBuilder
}

var _ CacheManager = (*NullCache)(nil)

func NewNullCache() *NullCache {
	return &NullCache{keys: NewKeyBuilder("")}
}

func (n *NullCache) Set(ctx context.Context, key string, value interface{}) error {
	return nil // Ничего не делаем
}

func (n *NullCache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (n *NullCache) Get(ctx context.Context, key string, dest interface{}) error {
	return ErrCacheMiss // Всегда miss
}

func (n *NullCache) GetMultiple(ctx context.Context, keys []string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (n *NullCache) Delete(ctx context.Context, keys ...string) error {
	return nil
}

func (n *NullCache) DeletePattern(ctx context.Context, pattern string) error {
	return nil
}

func (n *NullCache) HealthCheck(ctx context.Context) error {
	return nil // Всегда "здоров"
}

func (n *NullCache) Close() error {
	return nil
}

func (n *NullCache) Keys() *KeyBuilder {
	return n.keys
}

func (n *NullCache) TTL() time.Duration {
	return 0
}

func (n *NullCache) FlushCache(ctx context.Context) error {
	return nil
}
