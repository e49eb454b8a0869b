// Package fetch abstracts the byte-range transport that feeds zip/lazy.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Fetcher retrieves byte ranges of a single remote or local object.
//
// Implementations must be safe for concurrent use. Callers must not modify the returned slices since they may be
// shared, for example by Cache.
type Fetcher interface {
	// FetchRange returns exactly n bytes starting at absolute offset off.
	FetchRange(ctx context.Context, off, n int64) ([]byte, error)

	// FetchTail returns the last n bytes of the object, or the whole object if it is smaller than n, along with the
	// absolute offset of the first returned byte.
	FetchTail(ctx context.Context, n int64) (data []byte, off int64, err error)
}

var (
	// ErrInvalidContentRange is returned if a ranged response has a missing or malformed Content-Range header.
	ErrInvalidContentRange = errors.New("Content-Range not found")

	// ErrShortRead is returned if fewer bytes than requested were returned by FetchRange.
	ErrShortRead = errors.New("short read")
)

// ContentRange is a parsed `Content-Range: bytes start-end/size` header.
type ContentRange struct {
	// Start is the first byte position.
	Start int64
	// End is the last byte position, inclusive.
	End int64
	// Size is the complete length of the object, or -1 if the server replied with `*`.
	Size int64
}

// Len returns the number of bytes covered by the range.
func (c ContentRange) Len() int64 {
	return c.End - c.Start + 1
}

// ParseContentRange parses the value of a Content-Range header such as `bytes 100-200/1000`.
func ParseContentRange(v string) (c ContentRange, err error) {
	unit, value, ok := strings.Cut(strings.TrimSpace(v), " ")
	if !ok || unit != "bytes" {
		return c, fmt.Errorf("%w: %q", ErrInvalidContentRange, v)
	}

	rng, size, ok := strings.Cut(value, "/")
	if !ok {
		return c, fmt.Errorf("%w: %q", ErrInvalidContentRange, v)
	}

	start, end, ok := strings.Cut(rng, "-")
	if !ok {
		return c, fmt.Errorf("%w: %q", ErrInvalidContentRange, v)
	}

	if c.Start, err = strconv.ParseInt(start, 10, 64); err != nil {
		return c, fmt.Errorf("%w: invalid start in %q: %w", ErrInvalidContentRange, v, err)
	}
	if c.End, err = strconv.ParseInt(end, 10, 64); err != nil {
		return c, fmt.Errorf("%w: invalid end in %q: %w", ErrInvalidContentRange, v, err)
	}

	if size == "*" {
		c.Size = -1
	} else if c.Size, err = strconv.ParseInt(size, 10, 64); err != nil {
		return c, fmt.Errorf("%w: invalid size in %q: %w", ErrInvalidContentRange, v, err)
	}

	if c.Start < 0 || c.End < c.Start || (c.Size >= 0 && c.End >= c.Size) {
		return c, fmt.Errorf("%w: %q is out of order", ErrInvalidContentRange, v)
	}

	return c, nil
}

// RangeHeader formats the HTTP Range header value that requests n bytes starting at off.
func RangeHeader(off, n int64) string {
	return fmt.Sprintf("bytes=%d-%d", off, off+n-1)
}

// SuffixRangeHeader formats the HTTP Range header value that requests the last n bytes.
func SuffixRangeHeader(n int64) string {
	return fmt.Sprintf("bytes=-%d", n)
}

// CheckLen returns ErrShortRead if data does not contain exactly n bytes.
func CheckLen(data []byte, off, n int64) error {
	if int64(len(data)) != n {
		return fmt.Errorf("%w: requested %d bytes at offset %d, got %d", ErrShortRead, n, off, len(data))
	}

	return nil
}
