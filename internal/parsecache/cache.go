// Package parsecache memoizes parsed files for the duration of one project
// run, keyed by the file's path relative to the project.
package parsecache

import "sync"

type entry[T any] struct {
	once sync.Once
	val  T
	err  error
}

// Cache loads each key at most once between resets. It is safe for
// concurrent use.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]*entry[T]
	hits    int
	misses  int
}

func New[T any]() *Cache[T] {
	return &Cache[T]{entries: map[string]*entry[T]{}}
}

// Get returns the cached value for key, calling load on the first request.
// Load errors are cached as well.
func (c *Cache[T]) Get(key string, load func() (T, error)) (T, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		e = &entry[T]{}
		c.entries[key] = e
		c.misses++
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.val, e.err = load()
	})
	return e.val, e.err
}

// Reset drops every entry. It is called at the start of each project run.
func (c *Cache[T]) Reset() {
	c.mu.Lock()
	c.entries = map[string]*entry[T]{}
	c.hits, c.misses = 0, 0
	c.mu.Unlock()
}

func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the number of requests served from the cache and the number
// that had to load, both counted since the last reset.
func (c *Cache[T]) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
