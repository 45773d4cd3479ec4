package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Kosench/shortlink/internal/cache"
	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
	"github.com/Kosench/shortlink/internal/repository"
)

var _ repository.LinkStore = (*mockLinkStore)(nil)

type mockLinkStore struct {
	mu         sync.Mutex
	links      map[int64]*model.Link
	events     map[string]*model.ClickEvent
	nextID     int64
	shouldFail bool
	// collisions makes the first N inserts report a duplicate code.
	collisions int
	inserts    int
}

func newMockLinkStore() *mockLinkStore {
	return &mockLinkStore{
		links:  make(map[int64]*model.Link),
		events: make(map[string]*model.ClickEvent),
	}
}

func (m *mockLinkStore) unavailable(op string) error {
	return apperrors.NewStoreUnavailable(op, errors.New("database error"))
}

func (m *mockLinkStore) Insert(ctx context.Context, link *model.Link) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inserts++
	if m.shouldFail {
		return 0, m.unavailable("insert link")
	}
	if m.inserts <= m.collisions {
		return 0, apperrors.ErrDuplicateCode
	}
	if link.HasShortCode() {
		for _, existing := range m.links {
			if existing.Code() == link.Code() {
				return 0, apperrors.ErrDuplicateCode
			}
		}
	}

	m.nextID++
	link.ID = m.nextID
	stored := *link
	m.links[link.ID] = &stored
	return link.ID, nil
}

func (m *mockLinkStore) GetByID(ctx context.Context, id int64) (*model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return nil, m.unavailable("get link by id")
	}
	link, ok := m.links[id]
	if !ok {
		return nil, fmt.Errorf("link %d: %w", id, apperrors.ErrLinkNotFound)
	}
	copied := *link
	return &copied, nil
}

func (m *mockLinkStore) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return nil, m.unavailable("get link by code")
	}
	for _, link := range m.links {
		if link.HasShortCode() && link.Code() == code {
			copied := *link
			return &copied, nil
		}
	}
	return nil, apperrors.ErrLinkNotFound
}

func (m *mockLinkStore) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return nil, m.unavailable("list links")
	}
	var owned []model.Link
	for _, link := range m.links {
		if link.OwnerID == ownerID {
			owned = append(owned, *link)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].ID > owned[j].ID })
	if offset >= len(owned) {
		return []model.Link{}, nil
	}
	owned = owned[offset:]
	if len(owned) > limit {
		owned = owned[:limit]
	}
	return owned, nil
}

func (m *mockLinkStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return m.unavailable("delete link")
	}
	if _, ok := m.links[id]; !ok {
		return apperrors.ErrLinkNotFound
	}
	delete(m.links, id)
	for key, event := range m.events {
		if event.LinkID == id {
			delete(m.events, key)
		}
	}
	return nil
}

func (m *mockLinkStore) IncrementClicks(ctx context.Context, event *model.ClickEvent) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return 0, m.unavailable("increment clicks")
	}
	link, ok := m.links[event.LinkID]
	if !ok {
		return 0, apperrors.ErrLinkNotFound
	}
	if _, seen := m.events[event.EventID]; !seen {
		m.events[event.EventID] = event
		link.ClickCount++
	}
	return link.ClickCount, nil
}

func (m *mockLinkStore) CountClicksByDay(ctx context.Context, linkID int64, fromDay, toDay string) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return nil, m.unavailable("count clicks by day")
	}
	counts := make(map[string]int64)
	for _, event := range m.events {
		if event.LinkID == linkID && event.Day >= fromDay && event.Day <= toDay {
			counts[event.Day]++
		}
	}
	return counts, nil
}

func (m *mockLinkStore) Ping(ctx context.Context) error {
	if m.shouldFail {
		return m.unavailable("ping")
	}
	return nil
}

func (m *mockLinkStore) clickCount(id int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if link, ok := m.links[id]; ok {
		return link.ClickCount
	}
	return -1
}

// syncScheduler applies clicks inline so tests can assert immediately.
type syncScheduler struct {
	writer ClickWriter
	mu     sync.Mutex
	events []*model.ClickEvent
}

func (s *syncScheduler) Record(event *model.ClickEvent) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	if s.writer != nil {
		_, _ = s.writer.IncrementClicks(context.Background(), event)
	}
}

func (s *syncScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

var _ cache.CacheManager = (*memoryCache)(nil)

// memoryCache is a map-backed CacheManager without expiry.
type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
	keys *cache.KeyBuilder
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string), keys: cache.NewKeyBuilder("test")}
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}) error {
	return m.SetWithTTL(ctx, key, value, time.Minute)
}

func (m *memoryCache) SetWithTTL(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(data)
	return nil
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal([]byte(raw), dest)
}

func (m *memoryCache) GetMultiple(_ context.Context, keys []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string)
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryCache) DeletePattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memoryCache) HealthCheck(context.Context) error { return nil }
func (m *memoryCache) Close() error                      { return nil }
func (m *memoryCache) Keys() *cache.KeyBuilder           { return m.keys }
func (m *memoryCache) TTL() time.Duration                { return time.Minute }
func (m *memoryCache) FlushCache(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
	return nil
}

func (m *memoryCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}
