package fetch

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// LoggingFetcher logs a running tally of fetched bytes at most once every interval.
type LoggingFetcher struct {
	Fetcher

	logger *log.Logger
	rate   *rate.Sometimes

	requests, bytes atomic.Int64
}

// WithLogger wraps f so that the given logger prints `fetched X in N requests so far` every interval, where X is
// displayed in a human-friendly format (e.g. 5 KiB, 1 MiB, etc.).
func WithLogger(f Fetcher, logger *log.Logger, interval time.Duration) *LoggingFetcher {
	return &LoggingFetcher{
		Fetcher: f,
		logger:  logger,
		rate:    &rate.Sometimes{Interval: interval},
	}
}

func (l *LoggingFetcher) FetchRange(ctx context.Context, off, n int64) ([]byte, error) {
	data, err := l.Fetcher.FetchRange(ctx, off, n)
	l.record(data, err)
	return data, err
}

func (l *LoggingFetcher) FetchTail(ctx context.Context, n int64) ([]byte, int64, error) {
	data, off, err := l.Fetcher.FetchTail(ctx, n)
	l.record(data, err)
	return data, off, err
}

// Close logs the total.
func (l *LoggingFetcher) Close() error {
	l.logger.Printf("fetched %s in %d requests in total", humanize.IBytes(uint64(l.bytes.Load())), l.requests.Load())
	return nil
}

func (l *LoggingFetcher) record(data []byte, err error) {
	if err != nil {
		l.logger.Printf("fetch error: %v", err)
		return
	}

	requests, n := l.requests.Add(1), l.bytes.Add(int64(len(data)))
	l.rate.Do(func() {
		l.logger.Printf("fetched %s in %d requests so far", humanize.IBytes(uint64(n)), requests)
	})
}
