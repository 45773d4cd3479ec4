package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrCacheMiss - ключа нет или он истек
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheConnectionFailed is returned by NewRedisClient when Redis does not answer PING.
	ErrCacheConnectionFailed = errors.New("cache connection failed")

	ErrInvalidCacheKey = errors.New("invalid cache key")
)

// CacheError wraps a Redis failure with the operation and key involved.
// Op is one of "connect", "get", "mget", "set", "delete", "scan", "ping",
// "flush" or "close".
type CacheError struct {
	Op  string
	Key string // пусто для операций без ключа
	Err error
}

func (e *CacheError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cache %s '%s': %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

func NewCacheError(op, key string, err error) error {
	return &CacheError{
		Op:  op,
		Key: key,
		Err: err,
	}
}

// IsCacheMiss reports whether err only means the key is absent.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
