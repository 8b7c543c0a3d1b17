// Package cache реализует процессный кэш представлений ответов
// со скользящим сроком жизни и абсолютным ограничением.
package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// Ключи коллекций.
const (
	KeyAllProducts = "products:all"
	KeyAllOrders   = "orders:all"
)

// Причины удаления записей для метрик.
const (
	ReasonExpired = "expired"
	ReasonRemoved = "removed"
)

// Policy задаёт срок жизни записи: Sliding продлевается при каждом попадании,
// Absolute ограничивает жизнь записи от момента вставки. Нулевое значение отключает ограничение.
type Policy struct {
	Sliding  time.Duration
	Absolute time.Duration
}

var (
	// CollectionPolicy применяется к спискам товаров и заказов.
	CollectionPolicy = Policy{Sliding: 10 * time.Minute, Absolute: time.Hour}
	// EntityPolicy применяется к отдельным товарам и заказам.
	EntityPolicy = Policy{Sliding: 3 * time.Minute, Absolute: 10 * time.Minute}
)

// ProductKey возвращает ключ представления товара.
func ProductKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}

// OrderKeyPrefix — общий префикс ключей отдельных заказов.
const OrderKeyPrefix = "order:"

// OrderKey возвращает ключ представления заказа.
func OrderKey(id string) string {
	return OrderKeyPrefix + id
}

// Observer получает события кэша, например для экспорта метрик.
type Observer interface {
	CacheHit(class string)
	CacheMiss(class string)
	CacheEvicted(class, reason string, n int)
	CacheSize(n int)
}

type nopObserver struct{}

func (nopObserver) CacheHit(string)                  {}
func (nopObserver) CacheMiss(string)                 {}
func (nopObserver) CacheEvicted(string, string, int) {}
func (nopObserver) CacheSize(int)                    {}

type entry struct {
	value     any
	sliding   time.Duration
	deadline  time.Time
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// touch продлевает запись на sliding, не выходя за абсолютный deadline.
func (e *entry) touch(now time.Time) {
	switch {
	case e.sliding > 0:
		e.expiresAt = now.Add(e.sliding)
		if !e.deadline.IsZero() && e.deadline.Before(e.expiresAt) {
			e.expiresAt = e.deadline
		}
	default:
		e.expiresAt = e.deadline
	}
}

// Option настраивает Cache.
type Option func(*Cache)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithObserver подключает наблюдателя событий кэша.
func WithObserver(observer Observer) Option {
	return func(c *Cache) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// Cache — потокобезопасное хранилище ключ→значение.
// Значения считаются неизменяемыми после Set.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	now      func() time.Time
	observer Observer
}

// New создаёт пустой кэш.
func New(options ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]*entry),
		now:      time.Now,
		observer: nopObserver{},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Get возвращает значение и продлевает скользящий срок записи.
// Просроченная запись удаляется и считается промахом.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	class := keyClass(key)
	e, ok := c.entries[key]
	if !ok {
		c.observer.CacheMiss(class)
		return nil, false
	}

	now := c.now()
	if e.expired(now) {
		delete(c.entries, key)
		c.observer.CacheEvicted(class, ReasonExpired, 1)
		c.observer.CacheSize(len(c.entries))
		c.observer.CacheMiss(class)
		return nil, false
	}

	e.touch(now)
	c.observer.CacheHit(class)
	return e.value, true
}

// Set сохраняет значение, заменяя предыдущее вместе с его сроками.
func (c *Cache) Set(key string, value any, policy Policy) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e := &entry{value: value, sliding: policy.Sliding}
	if policy.Absolute > 0 {
		e.deadline = now.Add(policy.Absolute)
	}
	e.touch(now)

	c.entries[key] = e
	c.observer.CacheSize(len(c.entries))
}

// Remove удаляет записи; отсутствующие ключи игнорируются.
func (c *Cache) Remove(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		if _, ok := c.entries[key]; !ok {
			continue
		}
		delete(c.entries, key)
		c.observer.CacheEvicted(keyClass(key), ReasonRemoved, 1)
	}
	c.observer.CacheSize(len(c.entries))
}

// RemovePrefix удаляет все записи, ключ которых начинается с prefix.
func (c *Cache) RemovePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			c.observer.CacheEvicted(keyClass(key), ReasonRemoved, 1)
			removed++
		}
	}
	c.observer.CacheSize(len(c.entries))
	return removed
}

// EvictExpired удаляет все просроченные записи и возвращает их число.
func (c *Cache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	byClass := make(map[string]int)
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			byClass[keyClass(key)]++
		}
	}

	total := 0
	for class, n := range byClass {
		c.observer.CacheEvicted(class, ReasonExpired, n)
		total += n
	}
	if total > 0 {
		c.observer.CacheSize(len(c.entries))
	}
	return total
}

// Len возвращает число записей, включая ещё не вычищенные просроченные.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Lookup достаёт значение нужного типа; значение другого типа считается промахом.
func Lookup[T any](c *Cache, key string) (T, bool) {
	var zero T
	raw, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	value, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return value, true
}

// keyClass возвращает префикс ключа до двоеточия, для коллекций — имя коллекции.
func keyClass(key string) string {
	class, _, found := strings.Cut(key, ":")
	if !found {
		return "other"
	}
	return class
}
