package fetch

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedFetcher reserves bytes from a token bucket before each fetch.
type RateLimitedFetcher struct {
	Fetcher

	limiter *rate.Limiter
}

// RateLimit wraps f so that at most maxBytesInSecond bytes are requested every second.
//
// The zero-value indicates no limit. Must be a non-negative integer otherwise.
func RateLimit(f Fetcher, maxBytesInSecond int64) (*RateLimitedFetcher, error) {
	var limiter *rate.Limiter
	if maxBytesInSecond < 0 {
		return nil, fmt.Errorf("maxBytesInSecond (%d) must be a non-negative integer", maxBytesInSecond)
	} else if maxBytesInSecond == 0 {
		limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		limiter = rate.NewLimiter(rate.Limit(maxBytesInSecond), int(maxBytesInSecond))
	}

	return &RateLimitedFetcher{Fetcher: f, limiter: limiter}, nil
}

func (f *RateLimitedFetcher) FetchRange(ctx context.Context, off, n int64) ([]byte, error) {
	if err := f.wait(ctx, n); err != nil {
		return nil, err
	}

	return f.Fetcher.FetchRange(ctx, off, n)
}

func (f *RateLimitedFetcher) FetchTail(ctx context.Context, n int64) ([]byte, int64, error) {
	if err := f.wait(ctx, n); err != nil {
		return nil, 0, err
	}

	return f.Fetcher.FetchTail(ctx, n)
}

// wait reserves n tokens in chunks no larger than the burst size since rate.Limiter.WaitN rejects anything larger.
func (f *RateLimitedFetcher) wait(ctx context.Context, n int64) error {
	if f.limiter.Limit() == rate.Inf {
		return ctx.Err()
	}

	burst := int64(f.limiter.Burst())
	for n > 0 {
		k := min(n, burst)
		if err := f.limiter.WaitN(ctx, int(k)); err != nil {
			return err
		}

		n -= k
	}

	return nil
}
