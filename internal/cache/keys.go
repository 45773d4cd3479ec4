package cache

import (
	"fmt"
	"strconv"
)

// KeyPrefix - префиксы для разных типов ключей
type KeyPrefix string

const (
	PrefixLink      KeyPrefix = "link"      // link:shortCode
	PrefixTombstone KeyPrefix = "gone"      // gone:shortCode
	PrefixAnalytics KeyPrefix = "analytics" // analytics:linkID:days
)

// KeyBuilder - построитель ключей кэша
type KeyBuilder struct {
	namespace string
}

func NewKeyBuilder(namespace string) *KeyBuilder {
	return &KeyBuilder{namespace: namespace}
}

// Build создает ключ с префиксом и опциональным namespace
func (k *KeyBuilder) Build(prefix KeyPrefix, parts ...string) string {
	key := string(prefix)

	if k.namespace != "" {
		key = k.namespace + ":" + key
	}

	for _, part := range parts {
		key += ":" + part
	}

	return key
}

// Link is the cached code-to-link mapping.
func (k *KeyBuilder) Link(shortCode string) string {
	return k.Build(PrefixLink, shortCode)
}

// Tombstone marks a code whose link was deleted recently. While it lives,
// cached entries for the code are ignored.
func (k *KeyBuilder) Tombstone(shortCode string) string {
	return k.Build(PrefixTombstone, shortCode)
}

func (k *KeyBuilder) Analytics(linkID int64, days int) string {
	return k.Build(PrefixAnalytics, strconv.FormatInt(linkID, 10), strconv.Itoa(days))
}

// AnalyticsPattern matches every cached analytics window of a link.
func (k *KeyBuilder) AnalyticsPattern(linkID int64) string {
	return k.Build(PrefixAnalytics, strconv.FormatInt(linkID, 10), "*")
}

// Pattern возвращает паттерн для поиска ключей
func (k *KeyBuilder) Pattern(prefix KeyPrefix) string {
	if k.namespace != "" {
		return fmt.Sprintf("%s:%s:*", k.namespace, prefix)
	}
	return fmt.Sprintf("%s:*", prefix)
}
