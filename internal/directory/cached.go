package directory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cached remembers positive answers for ttl. Misses and errors are never
// cached, so a newly created entity is visible immediately.
type Cached struct {
	next  Resolver
	cache *cache.Cache
}

func NewCached(next Resolver, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache.New(ttl, 2*ttl)}
}

func (c *Cached) Exists(ctx context.Context, kind Kind, id string) (bool, error) {
	key := string(kind) + "/" + id
	if _, found := c.cache.Get(key); found {
		return true, nil
	}
	ok, err := c.next.Exists(ctx, kind, id)
	if err == nil && ok {
		c.cache.SetDefault(key, struct{}{})
	}
	return ok, err
}
