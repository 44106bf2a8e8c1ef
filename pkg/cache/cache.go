package cache

import (
	"sync"
	"time"
)

// Clock 时钟接口（测试中注入假时钟，确定性地覆盖冷/热路径）
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock 系统时钟
func RealClock() Clock { return realClock{} }

// Cache 通用缓存接口
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
	Clear()
	Size() int
}

// InMemoryCache 内存 TTL 缓存。
// 不同 key 的读互不阻塞（RWMutex），单个 key 的刷新不影响其他 key。
type InMemoryCache[K comparable, V any] struct {
	items      map[K]*cacheItem[V]
	mu         sync.RWMutex
	defaultTTL time.Duration
	clock      Clock
}

// cacheItem 缓存项
type cacheItem[V any] struct {
	value     V
	expiresAt time.Time
}

// NewInMemoryCache 创建新的内存缓存（使用系统时钟）
func NewInMemoryCache[K comparable, V any](defaultTTL time.Duration) *InMemoryCache[K, V] {
	return NewInMemoryCacheWithClock[K, V](defaultTTL, realClock{})
}

// NewInMemoryCacheWithClock 创建新的内存缓存并注入时钟
func NewInMemoryCacheWithClock[K comparable, V any](defaultTTL time.Duration, clock Clock) *InMemoryCache[K, V] {
	if clock == nil {
		clock = realClock{}
	}
	return &InMemoryCache[K, V]{
		items:      make(map[K]*cacheItem[V]),
		defaultTTL: defaultTTL,
		clock:      clock,
	}
}

// Get 获取缓存值
func (c *InMemoryCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists {
		var zero V
		return zero, false
	}

	// 过期项等同 miss（惰性删除，由下一次 Set 覆盖）
	if c.clock.Now().After(item.expiresAt) {
		var zero V
		return zero, false
	}

	return item.value, true
}

// GetStale 获取缓存值，过期项也返回（stale=true）。
// 调用方在刷新失败时可以选择继续使用过期值而不是阻塞。
func (c *InMemoryCache[K, V]) GetStale(key K) (value V, ok bool, stale bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists {
		var zero V
		return zero, false, false
	}
	return item.value, true, c.clock.Now().After(item.expiresAt)
}

// Set 设置缓存值
func (c *InMemoryCache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl == 0 {
		ttl = c.defaultTTL
	}

	c.items[key] = &cacheItem[V]{
		value:     value,
		expiresAt: c.clock.Now().Add(ttl),
	}
}

// Delete 删除缓存项
func (c *InMemoryCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear 清空缓存
func (c *InMemoryCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*cacheItem[V])
}

// Size 获取缓存大小
func (c *InMemoryCache[K, V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
