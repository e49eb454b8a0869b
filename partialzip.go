// Package partialzip reads individual entries of a remote ZIP archive by fetching only the byte ranges it needs: the
// tail containing the EOCD record, the central directory, then one range per entry.
package partialzip

import (
	"context"
	"fmt"
	"log"
	"math"
	"slices"
	"sync"

	"github.com/katutoshi/zip-partial-loader/fetch"
	"github.com/katutoshi/zip-partial-loader/zip/lazy"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the default value for Options.Concurrency.
const DefaultConcurrency = 4

// Options customises Open.
type Options struct {
	// Concurrency is the maximum number of entries fetched in parallel by Reader.ExtractAll.
	//
	// Default to DefaultConcurrency. Must be a positive integer.
	Concurrency int

	// Logger is passed to lazy.Options.Logger unless ArchiveOptions sets one.
	Logger *log.Logger

	// ArchiveOptions are applied to lazy.Open.
	ArchiveOptions []func(*lazy.Options)
}

// Reader is a lazily loaded ZIP archive.
//
// All methods are safe for concurrent use.
type Reader struct {
	f    fetch.Fetcher
	a    *lazy.Archive
	opts Options

	// mu guards names.
	mu    sync.RWMutex
	names []string
}

// Open fetches the tail and the central directory of the archive behind f.
//
// Errors from zip/lazy are returned wrapped so that errors.Is works with the lazy sentinel errors.
func Open(ctx context.Context, f fetch.Fetcher, optFns ...func(*Options)) (*Reader, error) {
	opts := Options{
		Concurrency: DefaultConcurrency,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Concurrency <= 0 {
		return nil, fmt.Errorf("concurrency (%d) must be a positive integer", opts.Concurrency)
	}

	tail, off, err := f.FetchTail(ctx, lazy.MaxTailSize)
	if err != nil {
		return nil, fmt.Errorf("fetch tail error: %w", err)
	}

	if off < 0 || off > math.MaxUint32 {
		return nil, fmt.Errorf("%w: tail starts at offset %d", lazy.ErrZip64Unsupported, off)
	}

	a, err := lazy.Open(tail, append([]func(*lazy.Options){func(o *lazy.Options) {
		o.TailOffset = uint32(off)
		o.Logger = opts.Logger
	}}, opts.ArchiveOptions...)...)
	if err != nil {
		return nil, err
	}

	r := &Reader{f: f, a: a, opts: opts}
	if err = r.Reload(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

// Reload fetches and parses the central directory again.
//
// If Reload fails, the previous index remains in use.
func (r *Reader) Reload(ctx context.Context) error {
	cd := r.a.CDRange()

	// an empty archive has a zero-length central directory, and a zero-length range cannot be requested.
	var data []byte
	if n := cd.Len(); n != 0 {
		var err error
		if data, err = r.f.FetchRange(ctx, int64(cd.Offset), n); err != nil {
			return fmt.Errorf("fetch central directory %s error: %w", cd, err)
		}
	}

	names, err := r.a.ParseCentralDirectory(data)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.names = names
	r.mu.Unlock()
	return nil
}

// Archive returns the underlying index.
func (r *Reader) Archive() *lazy.Archive {
	return r.a
}

// Names returns the entry names in central directory order, including duplicates.
func (r *Reader) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.names)
}

// ReadFile fetches and decompresses the named entry.
func (r *Reader) ReadFile(ctx context.Context, name string) ([]byte, error) {
	rng, err := r.a.RangeOf(name)
	if err != nil {
		return nil, err
	}

	data, err := r.f.FetchRange(ctx, int64(rng.Offset), rng.Len())
	if err != nil {
		return nil, fmt.Errorf("fetch %q %s error: %w", name, rng, err)
	}

	return r.a.Extract(name, data)
}

// ExtractAll calls ReadFile on each of the given names using up to Options.Concurrency goroutines, then passes the
// result to fn.
//
// If names is empty, every distinct name is extracted. fn may be called concurrently. The first error from either
// ReadFile or fn cancels the remaining work and is returned.
func (r *Reader) ExtractAll(ctx context.Context, names []string, fn func(name string, data []byte) error) error {
	if len(names) == 0 {
		names = r.distinctNames()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for _, name := range names {
		g.Go(func() error {
			data, err := r.ReadFile(ctx, name)
			if err != nil {
				return err
			}

			return fn(name, data)
		})
	}

	return g.Wait()
}

func (r *Reader) distinctNames() []string {
	names := r.Names()
	seen := make(map[string]bool, len(names))
	return slices.DeleteFunc(names, func(name string) bool {
		if seen[name] {
			return true
		}

		seen[name] = true
		return false
	})
}
