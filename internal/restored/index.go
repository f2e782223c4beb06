package restored

import (
	"context"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Index answers key lookups against restored files. Results are ordered by
// row id so repeated lookups return candidates in the same order.
type Index interface {
	Lookup(ctx context.Context, key Key) ([]Asset, error)
}

// Observer receives one callback per lookup.
type Observer interface {
	ObserveLookup(shape Shape, cached bool, results int)
}

// CachedIndex memoizes lookups, including empty results.
type CachedIndex struct {
	next     Index
	cache    *lru.Cache[Key, []Asset]
	observer Observer
}

// NewCachedIndex wraps next with an LRU of size entries. A size of zero or
// less returns an uncached pass-through that still reports to observer.
func NewCachedIndex(next Index, size int, observer Observer) (*CachedIndex, error) {
	if next == nil {
		return nil, fmt.Errorf("cached index: nil backing index")
	}
	c := &CachedIndex{next: next, observer: observer}
	if size > 0 {
		cache, err := lru.New[Key, []Asset](size)
		if err != nil {
			return nil, fmt.Errorf("create lookup cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Lookup implements Index.
func (c *CachedIndex) Lookup(ctx context.Context, key Key) ([]Asset, error) {
	if c.cache != nil {
		if hit, ok := c.cache.Get(key); ok {
			c.observe(key.Shape, true, len(hit))
			return slices.Clone(hit), nil
		}
	}
	results, err := c.next.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Add(key, slices.Clone(results))
	}
	c.observe(key.Shape, false, len(results))
	return results, nil
}

// Len reports the number of cached keys.
func (c *CachedIndex) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

// Purge drops every cached lookup. Call after loading new listings.
func (c *CachedIndex) Purge() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

func (c *CachedIndex) observe(shape Shape, cached bool, results int) {
	if c.observer != nil {
		c.observer.ObserveLookup(shape, cached, results)
	}
}
