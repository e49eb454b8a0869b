package fetch

import (
	"context"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the default number of ranges kept by Cache.
const DefaultCacheSize = 128

// CacheStats are the counters of a CachingFetcher.
type CacheStats struct {
	Hits, Misses int64
}

// CachingFetcher memoizes fetched ranges in an LRU cache.
//
// Concurrent requests for the same range share a single underlying fetch.
type CachingFetcher struct {
	Fetcher

	lru   *lru.Cache[string, cached]
	group singleflight.Group

	hits, misses atomic.Int64
}

type cached struct {
	data []byte
	off  int64
}

// Cache wraps f with an LRU cache holding up to size ranges.
//
// DefaultCacheSize is used if size is not positive. Failed fetches are not cached.
func Cache(f Fetcher, size int) (*CachingFetcher, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	c, err := lru.New[string, cached](size)
	if err != nil {
		return nil, fmt.Errorf("create LRU cache error: %w", err)
	}

	return &CachingFetcher{Fetcher: f, lru: c}, nil
}

func (c *CachingFetcher) FetchRange(ctx context.Context, off, n int64) ([]byte, error) {
	v, err := c.do(ctx, fmt.Sprintf("range:%d-%d", off, n), func(ctx context.Context) (cached, error) {
		data, err := c.Fetcher.FetchRange(ctx, off, n)
		return cached{data: data, off: off}, err
	})
	return v.data, err
}

func (c *CachingFetcher) FetchTail(ctx context.Context, n int64) ([]byte, int64, error) {
	v, err := c.do(ctx, fmt.Sprintf("tail:%d", n), func(ctx context.Context) (cached, error) {
		data, off, err := c.Fetcher.FetchTail(ctx, n)
		return cached{data: data, off: off}, err
	})
	return v.data, v.off, err
}

// Stats returns the hit and miss counters.
func (c *CachingFetcher) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// Purge drops every cached range.
func (c *CachingFetcher) Purge() {
	c.lru.Purge()
}

// do returns the cached value of key, or runs fn once for all concurrent callers of the same key.
//
// fn runs with a context detached from the cancellation of whichever caller started it. Each caller stops waiting
// when its own ctx is done.
func (c *CachingFetcher) do(ctx context.Context, key string, fn func(context.Context) (cached, error)) (cached, error) {
	if v, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return v, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		c.misses.Add(1)
		v, err := fn(detached)
		if err != nil {
			return cached{}, err
		}

		c.lru.Add(key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return cached{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return cached{}, res.Err
		}

		return res.Val.(cached), nil
	}
}
