package cache

import (
	"container/list"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrKeyExists = errors.New("key already exists in cache")

// Cache is a weighted LRU cache. Entries are evicted least recently used
// first whenever the total weight exceeds the budget.
type Cache[K comparable, V any] interface {
	Insert(key K, value V, weight int) error
	Retrieve(key K) (V, bool)
	Remove(key K) bool
	Clear()

	Weight() int
	Budget() int
}

type entry[K comparable, V any] struct {
	key    K
	value  V
	weight int
}

type lru[K comparable, V any] struct {
	log *logrus.Entry

	mu      sync.Mutex
	order   *list.List
	entries map[K]*list.Element
	weight  int
	budget  int
}

// NewCache returns an empty cache holding at most budget total weight.
func NewCache[K comparable, V any](budget int) Cache[K, V] {
	return &lru[K, V]{
		log:     logrus.StandardLogger().WithField("type", "cache"),
		order:   list.New(),
		entries: make(map[K]*list.Element),
		budget:  budget,
	}
}

func (c *lru[K, V]) Insert(key K, value V, weight int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		return ErrKeyExists
	}

	c.entries[key] = c.order.PushFront(&entry[K, V]{key: key, value: value, weight: weight})
	c.weight += weight

	for c.weight > c.budget && c.order.Len() > 0 {
		evicted := c.removeElement(c.order.Back())
		c.log.WithFields(logrus.Fields{
			"key":    evicted.key,
			"weight": evicted.weight,
			"spare":  c.budget - c.weight,
		}).Trace("evicted entry")
	}

	return nil
}

func (c *lru[K, V]) Retrieve(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}

	c.order.MoveToFront(elem)
	return elem.Value.(*entry[K, V]).value, true
}

func (c *lru[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if ok {
		c.removeElement(elem)
	}
	return ok
}

func (c *lru[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.entries = make(map[K]*list.Element)
	c.weight = 0
}

func (c *lru[K, V]) Weight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}

func (c *lru[K, V]) Budget() int {
	return c.budget
}

func (c *lru[K, V]) removeElement(elem *list.Element) *entry[K, V] {
	e := c.order.Remove(elem).(*entry[K, V])
	delete(c.entries, e.key)
	c.weight -= e.weight
	return e
}
