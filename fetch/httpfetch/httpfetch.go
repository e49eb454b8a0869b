// Package httpfetch implements fetch.Fetcher with HTTP Range requests.
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/katutoshi/zip-partial-loader/fetch"
)

// ErrRangeNotSupported is returned if the server answers a Range request with the whole object (200 OK) and
// Options.AllowFullDownload is false.
var ErrRangeNotSupported = errors.New("range request not supported")

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Get request failed. status code: %d", e.StatusCode)
}

// Options customises New.
type Options struct {
	// Client is the HTTP client to use.
	//
	// By default, http.DefaultClient.
	Client *http.Client

	// ModifyRequest can be used to add headers such as Authorization to every request.
	ModifyRequest func(*http.Request)

	// AllowFullDownload makes a 200 OK response to a Range request acceptable. The whole body is then kept in memory and
	// subsequent fetches are sliced from it.
	AllowFullDownload bool
}

// Fetcher implements fetch.Fetcher for a single URL.
type Fetcher struct {
	url  string
	opts Options

	// mu guards full.
	mu   sync.Mutex
	full []byte
}

var _ fetch.Fetcher = (*Fetcher)(nil)

// New returns a Fetcher for the given URL.
func New(url string, optFns ...func(*Options)) *Fetcher {
	opts := Options{
		Client:        http.DefaultClient,
		ModifyRequest: func(*http.Request) {},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Fetcher{url: url, opts: opts}
}

func (f *Fetcher) FetchRange(ctx context.Context, off, n int64) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}

	if full := f.fullBody(); full != nil {
		return sliceFull(full, off, n)
	}

	data, start, full, err := f.get(ctx, fetch.RangeHeader(off, n))
	switch {
	case err != nil:
		return nil, err
	case full:
		return sliceFull(data, off, n)
	case start != off:
		return nil, fmt.Errorf("%w: requested offset %d, got %d", fetch.ErrInvalidContentRange, off, start)
	}

	if err = fetch.CheckLen(data, off, n); err != nil {
		return nil, err
	}

	return data, nil
}

func (f *Fetcher) FetchTail(ctx context.Context, n int64) ([]byte, int64, error) {
	if full := f.fullBody(); full != nil {
		off := max(0, int64(len(full))-n)
		return full[off:], off, nil
	}

	data, start, full, err := f.get(ctx, fetch.SuffixRangeHeader(n))
	switch {
	case err != nil:
		return nil, 0, err
	case full:
		off := max(0, int64(len(data))-n)
		return data[off:], off, nil
	default:
		return data, start, nil
	}
}

// DownloadAll retrieves the whole object without a Range header.
func (f *Fetcher) DownloadAll(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request error: %w", err)
	}
	f.opts.ModifyRequest(req)

	res, err := f.opts.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{StatusCode: res.StatusCode, Status: res.Status}
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body error: %w", err)
	}

	return data, nil
}

// get returns the body and the absolute offset of its first byte parsed from Content-Range.
// full is true if the server replied 200 OK with the whole object, which is only allowed with AllowFullDownload.
func (f *Fetcher) get(ctx context.Context, rangeHeader string) (data []byte, start int64, full bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, 0, false, fmt.Errorf("create request error: %w", err)
	}
	req.Header.Set("Range", rangeHeader)
	f.opts.ModifyRequest(req)

	res, err := f.opts.Client.Do(req)
	if err != nil {
		return nil, 0, false, err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusPartialContent:
		cr, err := fetch.ParseContentRange(res.Header.Get("Content-Range"))
		if err != nil {
			return nil, 0, false, err
		}

		if data, err = io.ReadAll(res.Body); err != nil {
			return nil, 0, false, fmt.Errorf("read body error: %w", err)
		}

		return data, cr.Start, false, nil
	case http.StatusOK:
		if !f.opts.AllowFullDownload {
			return nil, 0, false, fmt.Errorf("%w: %s responded %s to %q", ErrRangeNotSupported, f.url, res.Status, rangeHeader)
		}

		if data, err = io.ReadAll(res.Body); err != nil {
			return nil, 0, false, fmt.Errorf("read body error: %w", err)
		}

		f.mu.Lock()
		f.full = data
		f.mu.Unlock()

		return data, 0, true, nil
	default:
		return nil, 0, false, &StatusError{StatusCode: res.StatusCode, Status: res.Status}
	}
}

func (f *Fetcher) fullBody() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.full
}

func sliceFull(full []byte, off, n int64) ([]byte, error) {
	if off < 0 || n < 0 || off+n > int64(len(full)) {
		return nil, fmt.Errorf("%w: range [%d, %d) outside of size %d", fetch.ErrShortRead, off, off+n, len(full))
	}

	return full[off : off+n], nil
}
