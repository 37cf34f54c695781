package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"giftguide/internal/model"
)

// DefaultPrefetchConcurrency bounds parallel fetches during Prefetch.
const DefaultPrefetchConcurrency = 4

// Cache memoizes products by handle for the life of the process.
//
// Entries are never invalidated or evicted; storefront browsing sessions are
// short and stale prices are accepted. Only successful fetches are stored.
// Concurrent misses for the same handle are not collapsed: each one fetches,
// and the last to finish owns the entry.
//
// Returned products are shared. Callers must not mutate them.
type Cache struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu       sync.Mutex
	products map[string]*model.Product
}

// NewCache creates an empty cache in front of fetcher.
func NewCache(fetcher Fetcher, logger *slog.Logger) *Cache {
	return &Cache{
		fetcher:  fetcher,
		logger:   logger,
		products: make(map[string]*model.Product),
	}
}

// Get returns the product for handle, fetching it on first use.
func (c *Cache) Get(ctx context.Context, handle string) (*model.Product, error) {
	c.mu.Lock()
	p, ok := c.products[handle]
	c.mu.Unlock()
	if ok {
		return p, nil
	}

	p, err := c.fetcher.FetchProduct(ctx, handle)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.products[handle] = p
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "product cached",
		slog.String("handle", handle),
		slog.Int("variants", len(p.Variants)),
	)
	return p, nil
}

// Len returns the number of cached products.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.products)
}

// Prefetch warms the cache for handles with bounded concurrency.
// Every handle is attempted; failures are logged and returned joined.
func (c *Cache) Prefetch(ctx context.Context, handles []string) error {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed []error
	)
	g.SetLimit(DefaultPrefetchConcurrency)

	for _, handle := range handles {
		if handle == "" {
			continue
		}
		g.Go(func() error {
			if _, err := c.Get(ctx, handle); err != nil {
				c.logger.WarnContext(ctx, "prefetch failed",
					slog.String("handle", handle),
					slog.String("error", err.Error()),
				)
				mu.Lock()
				failed = append(failed, fmt.Errorf("prefetching %s: %w", handle, err))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	return errors.Join(failed...)
}
