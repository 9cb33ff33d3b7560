package catalog

import (
	"context"
	"strings"
	"sync"
)

// Snapshot is one published state of the product list.
type Snapshot struct {
	Products []Product `json:"products"`
	Loading  bool      `json:"loading"`
	Error    string    `json:"error,omitempty"`
}

// Cache holds the latest product snapshot for readers. It is never the source of truth:
// every Replace swaps the whole list.
type Cache struct {
	mu       sync.RWMutex
	snap     Snapshot
	byID     map[string]int
	watchers map[chan Snapshot]struct{}
}

// NewCache returns a cache in the loading state.
func NewCache() *Cache {
	return &Cache{
		snap:     Snapshot{Products: []Product{}, Loading: true},
		byID:     map[string]int{},
		watchers: map[chan Snapshot]struct{}{},
	}
}

// Replace installs s as the current snapshot and hands it to every watcher.
// The caller must not modify s.Products afterwards.
func (c *Cache) Replace(s Snapshot) {
	if s.Products == nil {
		s.Products = []Product{}
	}
	byID := make(map[string]int, len(s.Products))
	for i, p := range s.Products {
		byID[p.ID] = i
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = s
	c.byID = byID
	for ch := range c.watchers {
		offerLatest(ch, s)
	}
}

// Snapshot returns the current snapshot.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// FindByID returns the cached product with the given id.
func (c *Cache) FindByID(id string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.snap.Products[i], true
}

// Search returns the products matching f, in cache order.
func (c *Cache) Search(f Filter) []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Product, 0, len(c.snap.Products))
	for _, p := range c.snap.Products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// CountByCategory counts cached products per lower-cased category label.
func (c *Cache) CountByCategory() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	counts := make(map[string]int)
	for _, p := range c.snap.Products {
		counts[strings.ToLower(p.Category)]++
	}
	return counts
}

// Watch streams snapshots until ctx is done, starting with the current one.
// A slow reader skips intermediate snapshots but always receives the newest.
func (c *Cache) Watch(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	c.mu.Lock()
	ch <- c.snap
	c.watchers[ch] = struct{}{}
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		delete(c.watchers, ch)
		close(ch)
		c.mu.Unlock()
	}()
	return ch
}

// offerLatest replaces any undelivered snapshot in ch with s.
func offerLatest(ch chan Snapshot, s Snapshot) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}
